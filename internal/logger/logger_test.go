package logger

import "testing"

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		format  string
		wantErr bool
	}{
		{name: "info text", level: "info", format: "text"},
		{name: "debug json", level: "debug", format: "json"},
		{name: "case insensitive", level: "WARN", format: "TEXT"},
		{name: "empty level", level: "", format: "text", wantErr: true},
		{name: "empty format", level: "info", format: "", wantErr: true},
		{name: "bad level", level: "verbose", format: "text", wantErr: true},
		{name: "bad format", level: "info", format: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lg, err := New(tt.level, tt.format)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New(%q, %q) error = %v, wantErr %v", tt.level, tt.format, err, tt.wantErr)
			}
			if !tt.wantErr && lg == nil {
				t.Error("New() returned nil logger")
			}
		})
	}
}
