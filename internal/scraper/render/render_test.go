package render

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"malt-scraper/internal/logging"
	"malt-scraper/internal/scraper/browser/browsertest"
	"malt-scraper/internal/scraper/pacing"
)

func newWaiter(rec *pacing.Recorder) *Waiter {
	return NewWaiter(
		[]string{"h1", `[class*="title"]`},
		[]string{`[class*="skill"]`, `[class*="tag"]`},
		5*time.Second,
		pacing.NewSeeded(rec, 3),
		pacing.Range{Min: 5 * time.Second, Max: 8 * time.Second},
		logging.NewNop(),
	)
}

func TestWaitForContentReady(t *testing.T) {
	tests := []struct {
		name  string
		setup func(s *browsertest.FakeSession)
		want  bool
	}{
		{
			name: "both landmarks",
			setup: func(s *browsertest.FakeSession) {
				s.Set("h1", browsertest.Visible("Jane Doe")).Set(`[class*="tag"]`, browsertest.Visible("Go"))
			},
			want: true,
		},
		{
			name: "title falls back to second selector",
			setup: func(s *browsertest.FakeSession) {
				s.Set("h1", browsertest.Hidden()).
					Set(`[class*="title"]`, browsertest.Visible("Dev")).
					Set(`[class*="skill"]`, browsertest.Hidden(), browsertest.Visible("Go"))
			},
			want: true,
		},
		{
			name: "skills hidden",
			setup: func(s *browsertest.FakeSession) {
				s.Set("h1", browsertest.Visible("Jane Doe")).Set(`[class*="skill"]`, browsertest.Hidden())
			},
			want: false,
		},
		{
			name:  "nothing rendered",
			setup: func(s *browsertest.FakeSession) {},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &pacing.Recorder{}
			session := browsertest.NewFakeSession("")
			tt.setup(session)

			assert.Equal(t, tt.want, newWaiter(rec).WaitForContentReady(context.Background(), session, 30*time.Second))
			if assert.Equal(t, 1, rec.Calls()) {
				assert.GreaterOrEqual(t, rec.Slept[0], 5*time.Second)
				assert.LessOrEqual(t, rec.Slept[0], 8*time.Second)
			}
		})
	}
}

func TestLandmarksPresent_DoesNotSettle(t *testing.T) {
	rec := &pacing.Recorder{}
	session := browsertest.NewFakeSession("").
		Set("h1", browsertest.Visible("Jane Doe")).
		Set(`[class*="skill"]`, browsertest.Visible("Go"))

	assert.True(t, newWaiter(rec).LandmarksPresent(context.Background(), session))
	assert.Zero(t, rec.Calls())
}
