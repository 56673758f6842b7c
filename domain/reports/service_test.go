package reports

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/borealgeo/arvault/internal/config"
	"github.com/borealgeo/arvault/internal/fetch"
	"github.com/borealgeo/arvault/internal/storage"
	"github.com/borealgeo/arvault/pkg/apperror"
)

// fakeStore is an in-memory Store with injectable failures.
type fakeStore struct {
	mu      sync.Mutex
	folders map[string]bool
	files   map[string][]byte
	copies  []string

	folderErr error
	copyErr   error
	uploadErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		folders: make(map[string]bool),
		files:   make(map[string][]byte),
	}
}

func (f *fakeStore) EnsureFolder(_ context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.folderErr != nil {
		return f.folderErr
	}
	f.folders[path] = true
	return nil
}

func (f *fakeStore) Copy(_ context.Context, fromPath, toPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.copyErr != nil {
		return f.copyErr
	}
	f.copies = append(f.copies, fromPath+" -> "+toPath)
	f.files[toPath] = []byte("template")
	return nil
}

func (f *fakeStore) Upload(_ context.Context, path string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return f.uploadErr
	}
	f.files[path] = data
	return nil
}

// stubGetter serves canned bodies keyed by address.
type stubGetter struct {
	mu     sync.Mutex
	bodies map[string][]byte
	calls  []string
}

func (g *stubGetter) Get(_ context.Context, url string) (*fetch.Result, error) {
	g.mu.Lock()
	g.calls = append(g.calls, url)
	g.mu.Unlock()
	body, ok := g.bodies[url]
	if !ok {
		return nil, &fetch.StatusError{URL: url, StatusCode: 404}
	}
	return &fetch.Result{Body: body, FinalURL: url}, nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Storage.Root = "/ASSESSMENT_REPORTS"
	cfg.Pipeline.Workers = 3
	return cfg
}

func newTestService(t *testing.T, store Store, getter Getter) *Service {
	t.Helper()
	cfg := testConfig()
	table, err := NewTable(cfg, testLogger())
	require.NoError(t, err)
	return NewService(table, store, getter, cfg, testLogger())
}

func TestRetrieveValidation(t *testing.T) {
	svc := newTestService(t, newFakeStore(), &stubGetter{})

	tests := []struct {
		name string
		job  RetrievalJob
	}{
		{name: "missing report id", job: RetrievalJob{Jurisdiction: JurisdictionQuebec, Project: "P"}},
		{name: "missing jurisdiction", job: RetrievalJob{ReportID: "GM1", Project: "P"}},
		{name: "missing project", job: RetrievalJob{Jurisdiction: JurisdictionQuebec, ReportID: "GM1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Retrieve(context.Background(), tt.job)
			var appErr *apperror.Error
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, 400, appErr.HTTPStatus)
		})
	}
}

func TestRetrieveUnsupportedJurisdiction(t *testing.T) {
	svc := newTestService(t, newFakeStore(), &stubGetter{})

	_, err := svc.Retrieve(context.Background(), RetrievalJob{
		Jurisdiction: Jurisdiction("Mars"), ReportID: "X1", Project: "P",
	})
	assert.ErrorIs(t, err, apperror.ErrUnsupportedJurisdiction)

	// A valid jurisdiction with a violated report id precondition reads the same.
	_, err = svc.Retrieve(context.Background(), RetrievalJob{
		Jurisdiction: JurisdictionQuebec, ReportID: "12345", Project: "P",
	})
	assert.ErrorIs(t, err, apperror.ErrUnsupportedJurisdiction)
}

func TestRetrieveListingFlow(t *testing.T) {
	store := newFakeStore()
	getter := &stubGetter{bodies: map[string][]byte{
		"https://gq.mines.gouv.qc.ca/documents/EXAMINE/GM12345/": page(
			"GM12345-01.pdf",
			"GM12345-02.pdf",
			"index.html",
		),
		"https://gq.mines.gouv.qc.ca/documents/EXAMINE/GM12345/GM12345-01.pdf": []byte("%PDF-1.4 one"),
		"https://gq.mines.gouv.qc.ca/documents/EXAMINE/GM12345/GM12345-02.pdf": []byte("%PDF-1.4 two"),
	}}
	svc := newTestService(t, store, getter)

	result, err := svc.Retrieve(context.Background(), RetrievalJob{
		Jurisdiction: JurisdictionQuebec, ReportID: "GM12345", Project: "Abitibi",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Downloaded)

	root := "/ASSESSMENT_REPORTS/1 - NEW REPORTS/Quebec/Abitibi/GM12345"
	assert.True(t, store.folders[root])
	assert.True(t, store.folders[root+"/Instructions"])
	assert.True(t, store.folders[root+"/Source Data"])

	assert.Equal(t, []byte("%PDF-1.4 one"), store.files[root+"/Source Data/GM12345-01.pdf"])
	assert.Equal(t, []byte("%PDF-1.4 two"), store.files[root+"/Source Data/GM12345-02.pdf"])

	// Template seeds are renamed after the report.
	assert.Contains(t, store.files, root+"/Instructions/GM12345_Instructions.xlsx")
	assert.Contains(t, store.files, root+"/GM12345_Geochemistry.gdb")
	assert.Contains(t, store.files, root+"/GM12345_DDH.gdb")
}

func TestRetrieveDirectFile(t *testing.T) {
	store := newFakeStore()
	getter := &stubGetter{bodies: map[string][]byte{
		"https://mars.saskatchewan.ca/files/ar/74B09-0123.pdf": []byte("%PDF-1.4 sk"),
	}}
	svc := newTestService(t, store, getter)

	result, err := svc.Retrieve(context.Background(), RetrievalJob{
		Jurisdiction: JurisdictionSaskatchewan, ReportID: "74B09-0123", Project: "Athabasca",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Downloaded)

	// Direct-file jurisdictions never fetch a listing page.
	assert.Equal(t, []string{"https://mars.saskatchewan.ca/files/ar/74B09-0123.pdf"}, getter.calls)

	root := "/ASSESSMENT_REPORTS/1 - NEW REPORTS/Saskatchewan/Athabasca/74B09-0123"
	assert.Equal(t, []byte("%PDF-1.4 sk"), store.files[root+"/Source Data/74B09-0123.pdf"])
}

func TestRetrieveFoldersOnlyJurisdiction(t *testing.T) {
	store := newFakeStore()
	getter := &stubGetter{}
	svc := newTestService(t, store, getter)

	result, err := svc.Retrieve(context.Background(), RetrievalJob{
		Jurisdiction: JurisdictionNewBrunswick, ReportID: "475599", Project: "Bathurst",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Downloaded)
	assert.Empty(t, getter.calls)

	root := "/ASSESSMENT_REPORTS/1 - NEW REPORTS/New Brunswick/Bathurst/475599"
	assert.True(t, store.folders[root])
	assert.True(t, store.folders[root+"/Source Data"])
}

func TestRetrieveListingFetchFailure(t *testing.T) {
	svc := newTestService(t, newFakeStore(), &stubGetter{})

	_, err := svc.Retrieve(context.Background(), RetrievalJob{
		Jurisdiction: JurisdictionQuebec, ReportID: "GM404", Project: "P",
	})
	var appErr *apperror.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperror.ErrUpstream.Code, appErr.Code)
}

func TestRetrieveAllCandidatesFail(t *testing.T) {
	store := newFakeStore()
	getter := &stubGetter{bodies: map[string][]byte{
		"https://gq.mines.gouv.qc.ca/documents/EXAMINE/GM77/": page("a.pdf", "b.pdf"),
	}}
	svc := newTestService(t, store, getter)

	result, err := svc.Retrieve(context.Background(), RetrievalJob{
		Jurisdiction: JurisdictionQuebec, ReportID: "GM77", Project: "P",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Downloaded)
}

func TestRetrieveFolderCreationFailure(t *testing.T) {
	store := newFakeStore()
	store.folderErr = fmt.Errorf("remote store offline")
	svc := newTestService(t, store, &stubGetter{})

	_, err := svc.Retrieve(context.Background(), RetrievalJob{
		Jurisdiction: JurisdictionQuebec, ReportID: "GM1", Project: "P",
	})
	var appErr *apperror.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperror.ErrStorage.Code, appErr.Code)
}

func TestProvisionTemplateFailuresAreNonFatal(t *testing.T) {
	tests := []struct {
		name    string
		copyErr error
	}{
		{name: "already seeded", copyErr: storage.ErrConflict},
		{name: "template missing", copyErr: storage.ErrNotFound},
		{name: "transient store error", copyErr: fmt.Errorf("rate limited")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			store.copyErr = tt.copyErr
			svc := newTestService(t, store, &stubGetter{})

			layout, err := svc.provision(context.Background(), RetrievalJob{
				Jurisdiction: JurisdictionNewBrunswick, ReportID: "475599", Project: "P",
			})
			require.NoError(t, err)
			assert.True(t, store.folders[layout.Root])
			assert.Empty(t, store.copies)
		})
	}
}

func TestProvisionIdempotent(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, store, &stubGetter{})
	job := RetrievalJob{Jurisdiction: JurisdictionQuebec, ReportID: "GM9", Project: "P"}

	first, err := svc.provision(context.Background(), job)
	require.NoError(t, err)
	second, err := svc.provision(context.Background(), job)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, store.folders, 3)
}

func TestRunPipelineUploadFailure(t *testing.T) {
	store := newFakeStore()
	store.uploadErr = fmt.Errorf("quota exceeded")
	getter := &stubGetter{bodies: map[string][]byte{
		"https://h/a.pdf": []byte("x"),
	}}
	svc := newTestService(t, store, getter)

	count := svc.runPipeline(context.Background(), JurisdictionQuebec,
		[]Candidate{{Address: "https://h/a.pdf", Origin: OriginExplicit}},
		Layout{SourceData: "/dst"})
	assert.Equal(t, 0, count)
}

func TestRunPipelineNoCandidates(t *testing.T) {
	svc := newTestService(t, newFakeStore(), &stubGetter{})
	assert.Equal(t, 0, svc.runPipeline(context.Background(), JurisdictionQuebec, nil, Layout{}))
}

func TestRetrieveStoreNotConfigured(t *testing.T) {
	store := newFakeStore()
	store.folderErr = storage.ErrDisabled
	svc := newTestService(t, store, &stubGetter{})

	_, err := svc.Retrieve(context.Background(), RetrievalJob{
		Jurisdiction: JurisdictionQuebec, ReportID: "GM1", Project: "P",
	})
	var appErr *apperror.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 500, appErr.HTTPStatus)
	assert.Equal(t, apperror.ErrConfiguration.Code, appErr.Code)
}
