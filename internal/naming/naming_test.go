package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type guard struct{}

func (guard) Wrap() {}

func topLevel() {}

func TestFuncName(t *testing.T) {
	tests := []struct {
		name string
		fn   any
		want string
	}{
		{"function", topLevel, "naming.topLevel"},
		{"method value", guard{}.Wrap, "naming.guard.Wrap"},
		{"nil", nil, "<nil>"},
		{"nil func", (func())(nil), "<nil>"},
		{"not a func", 42, "int"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FuncName(tt.fn), tt.name)
	}
}

func TestClean(t *testing.T) {
	assert.Equal(t, "auth.Require", Clean("github.com/acme/app/auth.Require"))
	assert.Equal(t, "auth.(*Guard).Wrap", Clean("github.com/acme/app/auth.(*Guard).Wrap-fm"))
	assert.Equal(t, "main.main.func1", Clean("main.main.func1"))
}
