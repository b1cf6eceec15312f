package retry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		name   string
		policy *Policy
		method string
		status int
		want   bool
	}{
		{
			name:   "nil policy never retries",
			policy: nil,
			method: "GET",
			status: 500,
			want:   false,
		},
		{
			name:   "zero value never retries",
			policy: &Policy{},
			method: "GET",
			status: 500,
			want:   false,
		},
		{
			name:   "matching status",
			policy: &Policy{MaxRetries: 2, Statuses: []int{500, 502}},
			method: "GET",
			status: 502,
			want:   true,
		},
		{
			name:   "non-matching status",
			policy: &Policy{MaxRetries: 2, Statuses: []int{500}},
			method: "GET",
			status: 404,
			want:   false,
		},
		{
			name:   "empty methods means any method",
			policy: &Policy{MaxRetries: 1, Statuses: []int{500}},
			method: "DELETE",
			status: 500,
			want:   true,
		},
		{
			name:   "method restricted and allowed",
			policy: &Policy{MaxRetries: 1, Statuses: []int{500}, Methods: []string{"GET", "HEAD"}},
			method: "get",
			status: 500,
			want:   true,
		},
		{
			name:   "method restricted and refused",
			policy: &Policy{MaxRetries: 1, Statuses: []int{500}, Methods: []string{"GET"}},
			method: "POST",
			status: 500,
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.policy.ShouldRetry(tt.method, tt.status))
		})
	}
}
