package consent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"malt-scraper/internal/logging"
	"malt-scraper/internal/scraper/browser/browsertest"
	"malt-scraper/internal/scraper/pacing"
)

var selectors = []string{"#first", "#second", "#third"}

func newResolver(rec *pacing.Recorder) *Resolver {
	return NewResolver(selectors, 5*time.Second, pacing.NewSeeded(rec, 1),
		pacing.Range{Min: time.Second, Max: 2 * time.Second}, logging.NewNop())
}

func TestResolve_FirstVisibleWins(t *testing.T) {
	rec := &pacing.Recorder{}
	second := browsertest.Visible("Accepter")
	third := browsertest.Visible("OK")
	session := browsertest.NewFakeSession("").
		Set("#first", browsertest.Hidden()).
		Set("#second", second).
		Set("#third", third)

	assert.True(t, newResolver(rec).Resolve(context.Background(), session))

	assert.Equal(t, 1, second.Clicks())
	assert.Equal(t, 0, third.Clicks())
	assert.Equal(t, []string{"#first", "#second"}, session.Waited())
	assert.Equal(t, 1, rec.Calls())
	assert.GreaterOrEqual(t, rec.Slept[0], time.Second)
	assert.LessOrEqual(t, rec.Slept[0], 2*time.Second)
}

func TestResolve_ErrorsFallThrough(t *testing.T) {
	rec := &pacing.Recorder{}
	unclickable := &browsertest.FakeElement{NotClickable: true}
	failing := &browsertest.FakeElement{ClickErr: errors.New("detached")}
	good := browsertest.Visible("Accept")

	session := browsertest.NewFakeSession("").
		Set("#first", unclickable, failing).
		Set("#third", good)
	session.SelectorErrs = map[string]error{"#second": errors.New("boom")}

	assert.True(t, newResolver(rec).Resolve(context.Background(), session))
	assert.Equal(t, 1, good.Clicks())
	assert.Equal(t, 0, failing.Clicks())
}

func TestResolve_NoBannerIsSuccess(t *testing.T) {
	rec := &pacing.Recorder{}
	session := browsertest.NewFakeSession("")

	assert.True(t, newResolver(rec).Resolve(context.Background(), session))
	assert.Equal(t, selectors, session.Waited())
	assert.Zero(t, rec.Calls())
}

func TestResolve_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	session := browsertest.NewFakeSession("").Set("#first", browsertest.Visible("ok"))
	assert.False(t, newResolver(&pacing.Recorder{}).Resolve(ctx, session))
}
