package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		encoding string
		wantErr  bool
	}{
		{name: "json info", level: "info", encoding: "json"},
		{name: "console debug", level: "debug", encoding: "console"},
		{name: "bad level", level: "loud", encoding: "json", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.level, tt.encoding)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestFromContext(t *testing.T) {
	base := Nop()
	child := base.With(StringField("session", "abc"))

	assert.Same(t, base, base.FromContext(context.Background()))
	assert.Same(t, child, base.FromContext(NewContext(context.Background(), child)))
	assert.Same(t, base, base.FromContext(nil))
}
