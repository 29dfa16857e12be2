package prodex

import (
	"context"

	domprod "github.com/kailas-cloud/prodex/internal/domain/product"
	domreindex "github.com/kailas-cloud/prodex/internal/domain/reindex"
	"github.com/kailas-cloud/prodex/internal/domain/search/request"
	"github.com/kailas-cloud/prodex/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/prodex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/prodex/internal/usecase/search"
)

// --- catalogUseCase mock ---

type mockCatalog struct {
	saveFn   func(ctx context.Context, p *domprod.Product) error
	getFn    func(ctx context.Context, id string) (domprod.Product, error)
	deleteFn func(ctx context.Context, id string) error
	countFn  func(ctx context.Context) (int, error)
}

func (m *mockCatalog) Save(ctx context.Context, p *domprod.Product) error { return m.saveFn(ctx, p) }

func (m *mockCatalog) Get(ctx context.Context, id string) (domprod.Product, error) {
	return m.getFn(ctx, id)
}

func (m *mockCatalog) Delete(ctx context.Context, id string) error { return m.deleteFn(ctx, id) }

func (m *mockCatalog) Count(ctx context.Context) (int, error) { return m.countFn(ctx) }

// --- embeddingDeleter mock ---

type mockEmbeddings struct {
	deleted []string
	err     error
}

func (m *mockEmbeddings) Delete(_ context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return m.err
}

// --- searchUseCase mock ---

type mockSearch struct {
	searchFn  func(ctx context.Context, req *request.Request) (searchuc.Response, error)
	similarFn func(ctx context.Context, req *request.SimilarRequest) ([]result.Result, error)
}

func (m *mockSearch) Search(ctx context.Context, req *request.Request) (searchuc.Response, error) {
	return m.searchFn(ctx, req)
}

func (m *mockSearch) SimilarTo(ctx context.Context, req *request.SimilarRequest) ([]result.Result, error) {
	return m.similarFn(ctx, req)
}

// --- reindexUseCase mock ---

type mockReindex struct {
	runFn   func(ctx context.Context, force bool) (domreindex.Report, error)
	statsFn func(ctx context.Context) (domreindex.Stats, error)
}

func (m *mockReindex) Run(ctx context.Context, force bool) (domreindex.Report, error) {
	return m.runFn(ctx, force)
}

func (m *mockReindex) Stats(ctx context.Context) (domreindex.Stats, error) { return m.statsFn(ctx) }

// --- healthUseCase mock ---

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(context.Context) healthuc.Report { return m.report }
