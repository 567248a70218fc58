package errors

import (
	stderrors "errors"
	"testing"

	"glmengine/domain/core"

	"github.com/stretchr/testify/assert"
)

func TestWrapClassifiesDomainSentinels(t *testing.T) {
	err := Wrap(core.NewUnknownTermError("A*B"), "type III hypothesis")
	assert.Equal(t, CodeNotFound, GetCode(err))
	assert.True(t, stderrors.Is(err, core.ErrUnknownTerm))

	err = Wrap(core.NewNoLevelsError("group"), "design matrix")
	assert.Equal(t, CodeInvalidInput, GetCode(err))

	err = Wrap(stderrors.New("disk"), "read")
	assert.Equal(t, CodeInternalError, GetCode(err))
}

func TestWrapKeepsExistingCode(t *testing.T) {
	inner := InvalidInput(core.ErrUnknownContrast, "contrast \"foo\"")
	outer := Wrapf(inner, "contrast on %s", "A")
	assert.Equal(t, CodeInvalidInput, GetCode(outer))
	assert.Contains(t, outer.Error(), "contrast on A")
	assert.True(t, stderrors.Is(outer, core.ErrUnknownContrast))
}

func TestNilPassthrough(t *testing.T) {
	assert.Nil(t, Wrap(nil, "x"))
	assert.Nil(t, Wrapf(nil, "x %d", 1))
	assert.Nil(t, WithCode(CodeIOError, nil))
	assert.Equal(t, "UNKNOWN", GetCode(stderrors.New("plain")))
}
