// File: internal/authflow/fakes_test.go
package authflow

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/artgru/eduvulcan-for-ha/internal/browser"
)

// fakeElement is one control on the fake page.
type fakeElement struct {
	visible  bool
	value    string
	fillErr  error
	clickErr error

	filledWith []string
	clicks     int
}

// fakeSet is the ElementSet over a slice of fake elements.
type fakeSet struct {
	mu       sync.Mutex
	elements []*fakeElement
	countErr error
}

var _ browser.ElementSet = (*fakeSet)(nil)

func (s *fakeSet) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.countErr != nil {
		return 0, s.countErr
	}
	return len(s.elements), nil
}

func (s *fakeSet) IsVisible(ctx context.Context, i int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i >= len(s.elements) {
		return false, nil
	}
	return s.elements[i].visible, nil
}

func (s *fakeSet) Click(ctx context.Context, i int, timeout time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i >= len(s.elements) {
		return errors.New("no such element")
	}
	el := s.elements[i]
	if el.clickErr != nil {
		return el.clickErr
	}
	el.clicks++
	return nil
}

func (s *fakeSet) Fill(ctx context.Context, i int, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i >= len(s.elements) {
		return errors.New("no such element")
	}
	el := s.elements[i]
	if el.fillErr != nil {
		return el.fillErr
	}
	el.filledWith = append(el.filledWith, value)
	el.value = value
	return nil
}

func (s *fakeSet) Attribute(ctx context.Context, i int, name string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i >= len(s.elements) {
		return "", false, nil
	}
	if name == "value" {
		return s.elements[i].value, true, nil
	}
	return "", false, nil
}

// fakePage maps labels and selectors to element sets. Unmapped locators
// resolve to an empty set, matching a page where the target is absent.
type fakePage struct {
	mu        sync.Mutex
	labels    map[string]*fakeSet
	selectors map[string]*fakeSet

	navigated   []string
	navErr      error
	evaluated   []string
	evalErr     error
	waitFnCalls int
	waitFnErr   error
	respCalls   int
	respErr     error
}

var _ browser.Page = (*fakePage)(nil)

func newFakePage() *fakePage {
	return &fakePage{
		labels:    make(map[string]*fakeSet),
		selectors: make(map[string]*fakeSet),
	}
}

func (p *fakePage) addLabel(label string, set *fakeSet)  { p.labels[label] = set }
func (p *fakePage) addSelector(sel string, set *fakeSet) { p.selectors[sel] = set }

func (p *fakePage) Navigate(ctx context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.navigated = append(p.navigated, url)
	return p.navErr
}

func (p *fakePage) LocateByLabel(text string) browser.ElementSet {
	p.mu.Lock()
	defer p.mu.Unlock()
	if set, ok := p.labels[text]; ok {
		return set
	}
	return &fakeSet{}
}

func (p *fakePage) LocateBySelector(selector string) browser.ElementSet {
	p.mu.Lock()
	defer p.mu.Unlock()
	if set, ok := p.selectors[selector]; ok {
		return set
	}
	return &fakeSet{}
}

func (p *fakePage) WaitForFunction(ctx context.Context, js string, interval, timeout time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.waitFnCalls++
	return p.waitFnErr
}

func (p *fakePage) WaitForResponse(ctx context.Context, match func(method, url string) bool, timeout time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.respCalls++
	return p.respErr
}

func (p *fakePage) EvaluateScript(ctx context.Context, js string, out any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.evaluated = append(p.evaluated, js)
	return p.evalErr
}
