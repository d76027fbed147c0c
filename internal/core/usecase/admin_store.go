package usecase

import (
	"context"
	"strings"

	"github.com/gkisanet/2026.gemini-file-search/internal/core/domain"
)

// LoadStoreFiles fetches one page with the current filters.
func (w *Workspace) LoadStoreFiles(ctx context.Context, page int) error {
	if err := w.requireAdmin("usecase.load_store_files"); err != nil {
		return err
	}
	if page < 1 {
		page = 1
	}
	w.mu.Lock()
	w.state.Admin.Store.Query.Page = page
	query := w.state.Admin.Store.Query
	w.mu.Unlock()

	result, err := w.api().ListStoreFiles(ctx, query)
	if err != nil {
		return w.fail(ctx, "list_store_files", "Store 파일 목록 로드 실패: ", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	store := &w.state.Admin.Store
	if store.Query != query {
		return nil
	}
	store.Result = result
	// Category options are taken from the first response that has any, unless
	// refreshing is switched on.
	if len(result.Categories) > 0 && (!store.categoriesLoaded || w.opts.RefreshCategories) {
		store.Categories = append([]domain.CategoryCount(nil), result.Categories...)
		store.categoriesLoaded = true
	}
	return nil
}

// FilterStoreFiles applies category and store type and goes back to page 1.
func (w *Workspace) FilterStoreFiles(ctx context.Context, category, storeType string) error {
	if err := w.requireAdmin("usecase.filter_store_files"); err != nil {
		return err
	}
	st := domain.StoreType(strings.TrimSpace(storeType))
	if st != "" {
		parsed, err := domain.ParseStoreType(storeType)
		if err != nil {
			w.toasts.Show(ToastError, domain.UserMessage(err))
			return err
		}
		st = parsed
	}
	w.mu.Lock()
	w.state.Admin.Store.Query.Category = category
	w.state.Admin.Store.Query.StoreType = st
	w.mu.Unlock()
	return w.LoadStoreFiles(ctx, 1)
}

// SearchStoreFiles sets the file name search after the typing debounce and
// goes back to page 1.
func (w *Workspace) SearchStoreFiles(ctx context.Context, search string) error {
	if err := w.requireAdmin("usecase.search_store_files"); err != nil {
		return err
	}
	return w.storeSearch.Submit(ctx, func(ctx context.Context) error {
		w.mu.Lock()
		w.state.Admin.Store.Query.Search = strings.TrimSpace(search)
		w.mu.Unlock()
		return w.LoadStoreFiles(ctx, 1)
	})
}

// LoadStores fetches the store overview with per-store document counts.
func (w *Workspace) LoadStores(ctx context.Context) error {
	if err := w.requireAdmin("usecase.load_stores"); err != nil {
		return err
	}
	stores, err := w.api().ListStores(ctx)
	if err != nil {
		return w.fail(ctx, "list_stores", "Store 목록 로드 실패: ", err)
	}
	w.mu.Lock()
	w.state.Admin.Stores = stores
	w.mu.Unlock()
	return nil
}
