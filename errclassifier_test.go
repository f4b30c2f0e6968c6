// SPDX-License-Identifier: GPL-3.0-or-later

package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/rgnet/pipeline/errclass"
	"github.com/stretchr/testify/assert"
)

func TestDefaultErrClassifier(t *testing.T) {
	assert.Equal(t, "", DefaultErrClassifier.Classify(nil))
	assert.Equal(t, "", DefaultErrClassifier.Classify(errors.New("anything")))
}

func TestErrClassifierFuncWrapsErrclass(t *testing.T) {
	classifier := ErrClassifierFunc(errclass.New)

	assert.Equal(t, "", classifier.Classify(nil))
	assert.Equal(t, "ETIMEDOUT", classifier.Classify(context.DeadlineExceeded))
	assert.Equal(t, "EUNKNOWN", classifier.Classify(errors.New("unknown error")))
}
