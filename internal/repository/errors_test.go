package repository

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"testing"
)

type fakeNetError struct{}

func (fakeNetError) Error() string   { return "connection refused" }
func (fakeNetError) Timeout() bool   { return false }
func (fakeNetError) Temporary() bool { return true }

var _ net.Error = fakeNetError{}

func TestWrap(t *testing.T) {
	tests := []struct {
		name            string
		err             error
		wantUnavailable bool
	}{
		{"nil passes through", nil, false},
		{"bad conn maps to storage unavailable", driver.ErrBadConn, true},
		{"wrapped bad conn maps too", fmt.Errorf("exec: %w", driver.ErrBadConn), true},
		{"net error maps to storage unavailable", fakeNetError{}, true},
		{"plain error stays itself", errors.New("syntax error"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wrap("op", tt.err)
			if tt.err == nil {
				if got != nil {
					t.Fatalf("wrap(nil) = %v", got)
				}
				return
			}
			if errors.Is(got, ErrStorageUnavailable) != tt.wantUnavailable {
				t.Errorf("wrap(%v) = %v, unavailable = %v", tt.err, got, !tt.wantUnavailable)
			}
		})
	}
}
