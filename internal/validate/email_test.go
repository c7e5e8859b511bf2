package validate

import (
	"errors"
	"strings"
	"testing"
)

func TestEmail(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{
			name:  "simple address",
			input: "alice@example.com",
			want:  "alice@example.com",
		},
		{
			name:  "normalized to lowercase",
			input: "Alice@Example.COM",
			want:  "alice@example.com",
		},
		{
			name:  "trims whitespace",
			input: "  bob@example.org  ",
			want:  "bob@example.org",
		},
		{
			name:  "plus addressing",
			input: "bob+budget@example.org",
			want:  "bob+budget@example.org",
		},
		{
			name:    "empty",
			input:   "",
			wantErr: ErrEmpty,
		},
		{
			name:    "missing at sign",
			input:   "alice.example.com",
			wantErr: ErrInvalidEmail,
		},
		{
			name:    "missing domain dot",
			input:   "alice@localhost",
			wantErr: ErrInvalidEmail,
		},
		{
			name:    "spaces inside",
			input:   "alice smith@example.com",
			wantErr: ErrInvalidEmail,
		},
		{
			name:    "local part too long",
			input:   strings.Repeat("a", 65) + "@example.com",
			wantErr: ErrStringTooLong,
		},
		{
			name:    "address too long",
			input:   strings.Repeat("a", 250) + "@example.com",
			wantErr: ErrStringTooLong,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Email(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
