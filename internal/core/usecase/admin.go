package usecase

import "context"

// OpenDashboard loads every admin panel. Panels fail independently, but a
// lost login stops the rest.
func (w *Workspace) OpenDashboard(ctx context.Context) error {
	if err := w.requireAdmin("usecase.open_dashboard"); err != nil {
		return err
	}
	w.mu.Lock()
	page := w.state.Admin.Store.Query.Page
	w.mu.Unlock()

	panels := []func(context.Context) error{
		w.reloadFeedbacks,
		w.reloadDocuments,
		func(ctx context.Context) error { return w.LoadStoreFiles(ctx, page) },
		w.LoadStores,
	}
	for _, load := range panels {
		_ = load(ctx)
		if err := w.requireAdmin("usecase.open_dashboard"); err != nil {
			return err
		}
	}
	return nil
}
