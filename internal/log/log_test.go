package log

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLevelString(t *testing.T) {
	require.Equal(t, "DEBUG", LevelDebug.String())
	require.Equal(t, "INFO", LevelInfo.String())
	require.Equal(t, "WARN", LevelWarn.String())
	require.Equal(t, "ERROR", LevelError.String())
	require.Equal(t, "UNKNOWN", Level(42).String())
}

func TestFormatEntry(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name   string
		level  Level
		cat    Category
		msg    string
		fields []any
		want   string
	}{
		{
			name:  "no fields",
			level: LevelInfo,
			cat:   CatStore,
			msg:   "Loaded workflows",
			want:  "2026-03-14T09:30:00 [INFO] [store] Loaded workflows\n",
		},
		{
			name:   "paired fields",
			level:  LevelWarn,
			cat:    CatWatcher,
			msg:    "Debounce fired",
			fields: []any{"path", "/tmp/workflows.json", "count", 3},
			want:   "2026-03-14T09:30:00 [WARN] [watcher] Debounce fired path=/tmp/workflows.json count=3\n",
		},
		{
			name:   "orphan key",
			level:  LevelError,
			cat:    CatDB,
			msg:    "Save failed",
			fields: []any{"id"},
			want:   "2026-03-14T09:30:00 [ERROR] [db] Save failed id=<missing>\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, formatEntry(at, tt.level, tt.cat, tt.msg, tt.fields))
		})
	}
}
