// Package browsertest provides a scripted in-memory browser.Session for tests.
package browsertest

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"malt-scraper/internal/scraper/browser"
)

// FakeElement is a scripted DOM node
type FakeElement struct {
	TextValue    string
	Attrs        map[string]string
	Hidden       bool
	NotClickable bool
	ClickErr     error

	mu     sync.Mutex
	clicks int
}

// Clicks returns how many times the element was clicked
func (e *FakeElement) Clicks() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clicks
}

func (e *FakeElement) Visible(ctx context.Context) (bool, error) {
	return !e.Hidden, ctx.Err()
}

func (e *FakeElement) WaitClickable(ctx context.Context, timeout time.Duration) error {
	if e.NotClickable {
		return errors.New("element not interactable")
	}
	return ctx.Err()
}

func (e *FakeElement) Click(ctx context.Context) error {
	if e.ClickErr != nil {
		return e.ClickErr
	}
	e.mu.Lock()
	e.clicks++
	e.mu.Unlock()
	return ctx.Err()
}

func (e *FakeElement) Text(ctx context.Context) (string, error) {
	return e.TextValue, ctx.Err()
}

func (e *FakeElement) Attribute(ctx context.Context, name string) (string, bool, error) {
	v, ok := e.Attrs[name]
	return v, ok, ctx.Err()
}

// Visible returns a visible element with the given text
func Visible(text string) *FakeElement {
	return &FakeElement{TextValue: text}
}

// Hidden returns an element that is present but not visible
func Hidden() *FakeElement {
	return &FakeElement{Hidden: true}
}

// FakeSession implements browser.Session from a selector table. Selectors
// absent from the table never match. Every call is recorded.
type FakeSession struct {
	PageTitle string
	PageURL   string
	PageHTML  string

	// ScriptResult is JSON-encoded into the ExecuteScript destination
	ScriptResult interface{}
	ScriptErr    error

	NavigateErr error
	ReloadErr   error
	HTMLErr     error
	// SelectorErrs makes WaitForSelector fail for the listed selectors
	SelectorErrs map[string]error

	OnNavigate func(url string)
	OnReload   func(count int)

	mu          sync.Mutex
	elements    map[string][]*FakeElement
	navigations []string
	reloads     int
	waited      []string
	scripts     int
	screenshots []string
	snapshots   []string
	closeCalls  int
}

var _ browser.Session = (*FakeSession)(nil)

// NewFakeSession returns an empty page with the given title
func NewFakeSession(title string) *FakeSession {
	return &FakeSession{PageTitle: title, elements: make(map[string][]*FakeElement)}
}

// Set replaces the matches of selector
func (f *FakeSession) Set(selector string, els ...*FakeElement) *FakeSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.elements == nil {
		f.elements = make(map[string][]*FakeElement)
	}
	f.elements[selector] = els
	return f
}

// Clear removes every match of selector
func (f *FakeSession) Clear(selector string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.elements, selector)
}

func (f *FakeSession) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	f.navigations = append(f.navigations, url)
	f.PageURL = url
	hook := f.OnNavigate
	f.mu.Unlock()

	if hook != nil {
		hook(url)
	}
	return f.NavigateErr
}

func (f *FakeSession) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	f.reloads++
	count := f.reloads
	hook := f.OnReload
	f.mu.Unlock()

	if hook != nil {
		hook(count)
	}
	return f.ReloadErr
}

func (f *FakeSession) Title(ctx context.Context) (string, error) {
	return f.PageTitle, ctx.Err()
}

func (f *FakeSession) CurrentURL(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.PageURL, ctx.Err()
}

func (f *FakeSession) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) (browser.Element, error) {
	els, err := f.match(ctx, selector)
	if err != nil || len(els) == 0 {
		return nil, err
	}
	return els[0], nil
}

func (f *FakeSession) WaitForAllSelectors(ctx context.Context, selector string, timeout time.Duration) ([]browser.Element, error) {
	els, err := f.match(ctx, selector)
	if err != nil {
		return nil, err
	}
	out := make([]browser.Element, 0, len(els))
	for _, el := range els {
		out = append(out, el)
	}
	return out, nil
}

func (f *FakeSession) match(ctx context.Context, selector string) ([]*FakeElement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	f.waited = append(f.waited, selector)
	if err := f.SelectorErrs[selector]; err != nil {
		return nil, err
	}
	return append([]*FakeElement(nil), f.elements[selector]...), nil
}

func (f *FakeSession) ExecuteScript(ctx context.Context, script string, out interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	f.scripts++
	f.mu.Unlock()

	if f.ScriptErr != nil {
		return f.ScriptErr
	}
	if out == nil || f.ScriptResult == nil {
		return nil
	}
	raw, err := json.Marshal(f.ScriptResult)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (f *FakeSession) HTML(ctx context.Context) (string, error) {
	if f.HTMLErr != nil {
		return "", f.HTMLErr
	}
	return f.PageHTML, ctx.Err()
}

func (f *FakeSession) Screenshot(ctx context.Context, label string, fullPage bool) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.screenshots = append(f.screenshots, label)
	return "screenshots/" + label + ".png"
}

func (f *FakeSession) SaveHTML(ctx context.Context, label string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots = append(f.snapshots, label)
	return label + ".html"
}

func (f *FakeSession) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeCalls++
	return nil
}

// Navigations returns the URLs navigated to, in order
func (f *FakeSession) Navigations() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.navigations...)
}

func (f *FakeSession) Reloads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reloads
}

// Waited returns every selector queried, in order
func (f *FakeSession) Waited() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.waited...)
}

func (f *FakeSession) Scripts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.scripts
}

func (f *FakeSession) Screenshots() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.screenshots...)
}

// Snapshots returns the labels passed to SaveHTML
func (f *FakeSession) Snapshots() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.snapshots...)
}

func (f *FakeSession) CloseCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closeCalls
}

// Opener hands out sessions and counts how often it was asked
type Opener struct {
	Session *FakeSession
	Err     error

	mu    sync.Mutex
	calls []string
}

// Open satisfies browser.Opener
func (o *Opener) Open(ctx context.Context, profileID string) (browser.Session, error) {
	o.mu.Lock()
	o.calls = append(o.calls, profileID)
	o.mu.Unlock()

	if o.Err != nil {
		return nil, o.Err
	}
	return o.Session, nil
}

// Calls returns the profile IDs sessions were opened for
func (o *Opener) Calls() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.calls...)
}
