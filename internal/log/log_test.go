package log_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slok/todochat/internal/log"
)

func TestCtxWithValues(t *testing.T) {
	tests := map[string]struct {
		ctx       func() context.Context
		values    log.Kv
		expValues log.Kv
	}{
		"Setting values on an empty context should store them.": {
			ctx:       context.Background,
			values:    log.Kv{"request_id": "r1"},
			expValues: log.Kv{"request_id": "r1"},
		},
		"Setting values should keep the previous ones.": {
			ctx: func() context.Context {
				return log.CtxWithValues(context.Background(), log.Kv{"owner": "o1"})
			},
			values:    log.Kv{"request_id": "r1"},
			expValues: log.Kv{"owner": "o1", "request_id": "r1"},
		},
		"Setting values should override the previous ones with the same key.": {
			ctx: func() context.Context {
				return log.CtxWithValues(context.Background(), log.Kv{"owner": "o1"})
			},
			values:    log.Kv{"owner": "o2"},
			expValues: log.Kv{"owner": "o2"},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			ctx := log.CtxWithValues(test.ctx(), test.values)
			assert.Equal(t, test.expValues, log.ValuesFromCtx(ctx))
		})
	}
}

func TestValuesFromCtxWithoutValues(t *testing.T) {
	assert.Equal(t, log.Kv{}, log.ValuesFromCtx(context.Background()))
}
