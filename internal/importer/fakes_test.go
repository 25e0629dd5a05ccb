package importer_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/hublift/hublift/internal/github"
	"github.com/hublift/hublift/internal/gitrepo"
)

// fakeFetcher serves canned pages for collection paths. Pages are pure
// data, so re-running an import against the same fetcher sees the same
// remote state.
type fakeFetcher struct {
	pages    map[string][][]string    // path -> pages -> raw JSON items
	failures map[string]map[int]error // path -> page index -> transport error
	calls    []string                 // paths fetched, in order
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		pages:    make(map[string][][]string),
		failures: make(map[string]map[int]error),
	}
}

// addPage appends one page of raw items for a path.
func (f *fakeFetcher) addPage(path string, items ...string) {
	f.pages[path] = append(f.pages[path], items)
}

// fail makes the first page of a path return a transport error.
func (f *fakeFetcher) fail(path string, err error) {
	f.failPage(path, 0, err)
}

// failPage makes one specific page of a path return a transport error.
func (f *fakeFetcher) failPage(path string, index int, err error) {
	if f.failures[path] == nil {
		f.failures[path] = make(map[int]error)
	}
	f.failures[path][index] = err
}

func (f *fakeFetcher) page(path string, index int) (*github.Page, error) {
	if err := f.failures[path][index]; err != nil {
		return nil, err
	}
	pages := f.pages[path]
	if index >= len(pages) {
		return &github.Page{}, nil
	}

	page := &github.Page{}
	for _, item := range pages[index] {
		page.Items = append(page.Items, json.RawMessage(item))
	}
	if index+1 < len(pages) {
		page.NextURL = fmt.Sprintf("fake://page?path=%s&index=%d", url.QueryEscape(path), index+1)
	}
	return page, nil
}

func (f *fakeFetcher) GetPage(_ context.Context, path string, _ map[string]string) (*github.Page, error) {
	f.calls = append(f.calls, path)
	return f.page(path, 0)
}

func (f *fakeFetcher) GetPageURL(_ context.Context, rawURL string) (*github.Page, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	path := u.Query().Get("path")
	index, err := strconv.Atoi(u.Query().Get("index"))
	if err != nil {
		return nil, err
	}
	f.calls = append(f.calls, path)
	return f.page(path, index)
}

func (f *fakeFetcher) fetched(path string) bool {
	for _, call := range f.calls {
		if call == path {
			return true
		}
	}
	return false
}

// fakeRepo is an in-memory stand-in for the git storage engine.
type fakeRepo struct {
	branches map[string]string // branch name -> sha
	vanish   map[string]bool   // branches that disappear right after creation
	created  []string          // branches created, in order
	deleted  []string          // branches deleted, in order

	fetchErr         error
	wikiExists       bool
	wikiErr          error
	wikiImported     bool
	cacheInvalidated bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		branches: make(map[string]string),
		// A never-written wiki is the common case for test repos.
		wikiErr: gitrepo.ErrRepositoryNotExported,
	}
}

func (r *fakeRepo) Create(context.Context) error                         { return nil }
func (r *fakeRepo) AddMirrorRemote(_ context.Context, _, _ string) error { return nil }

func (r *fakeRepo) FetchRemote(_ context.Context, _ string, _ bool) error {
	return r.fetchErr
}

func (r *fakeRepo) BranchExists(_ context.Context, name string) (bool, error) {
	_, ok := r.branches[name]
	return ok, nil
}

func (r *fakeRepo) CreateBranch(_ context.Context, name, sha string) error {
	r.created = append(r.created, name)
	if r.vanish[name] {
		return nil
	}
	r.branches[name] = sha
	return nil
}

func (r *fakeRepo) DeleteBranch(_ context.Context, name string) error {
	if _, ok := r.branches[name]; !ok {
		return fmt.Errorf("%w: %s", gitrepo.ErrBranchNotFound, name)
	}
	delete(r.branches, name)
	r.deleted = append(r.deleted, name)
	return nil
}

func (r *fakeRepo) WikiExists() bool { return r.wikiExists }

func (r *fakeRepo) ImportWiki(context.Context, string) error {
	if r.wikiErr != nil {
		return r.wikiErr
	}
	r.wikiImported = true
	return nil
}

func (r *fakeRepo) InvalidateContentCache() error {
	r.cacheInvalidated = true
	return nil
}
