// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"strings"
	"testing"

	"github.com/rgnet/pipeline/future"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceFuncAdapter(t *testing.T) {
	var svc Service[int, int] = ServiceFunc[int, int](func(ctx context.Context, req int) *future.Future[int] {
		return future.Completed(req * 2)
	})

	resp, err := svc.Call(context.Background(), 21).Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, resp)
	assert.True(t, svc.IsAvailable())
	_, err = svc.Close().Get(context.Background())
	require.NoError(t, err)
}

// upperCaseFilter decorates a string service by upper-casing its response,
// grounding [Filter] as a usable decorator rather than dead scaffolding.
type upperCaseFilter struct {
	Filter[string, string, string, string]
}

func (f *upperCaseFilter) Call(ctx context.Context, req string) *future.Future[string] {
	p := future.NewPromise[string]()
	f.Inner.Call(ctx, req).Then(func(resp string, err error) {
		if err != nil {
			p.SetException(err)
			return
		}
		p.SetValue(strings.ToUpper(resp))
	})
	return p.Future()
}

func TestFilterDecoratesInnerService(t *testing.T) {
	f := &upperCaseFilter{Filter: Filter[string, string, string, string]{Inner: echoService{}}}

	resp, err := f.Call(context.Background(), "hello").Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "HELLO", resp)
	assert.True(t, f.IsAvailable())
}

func TestConstFactoryAndFactoryToService(t *testing.T) {
	factory := &ConstFactory[struct{}, string, string]{Service: echoService{}}

	svc, err := factory.Call(context.Background(), struct{}{}).Get(context.Background())
	require.NoError(t, err)
	resp, err := svc.Call(context.Background(), "direct").Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "direct", resp)

	fts := &FactoryToService[struct{}, string, string]{Factory: factory}
	resp, err = fts.Call(context.Background(), "via-factory").Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "via-factory", resp)
}

func TestFactoryFuncAdapter(t *testing.T) {
	var f Factory[struct{}, string, string] = FactoryFunc[struct{}, string, string](
		func(ctx context.Context, client struct{}) *future.Future[Service[string, string]] {
			return future.Completed[Service[string, string]](echoService{})
		},
	)
	svc, err := f.Call(context.Background(), struct{}{}).Get(context.Background())
	require.NoError(t, err)
	resp, err := svc.Call(context.Background(), "x").Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "x", resp)
}
