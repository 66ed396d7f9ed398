package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"budgetbook/internal/core"
	"budgetbook/internal/session"
	"budgetbook/internal/store"
)

// Template confirm actions.
const (
	TemplateActionApply  = "apply"
	TemplateActionDelete = "delete"
)

// ErrNoEntries is returned when a template is saved from a month that
// has nothing to snapshot.
var ErrNoEntries = errors.New("current month has no entries")

// TemplateService saves the current month as a named snapshot and
// applies snapshots back into the selected month. Destructive actions
// go through a confirm step so a double click cannot fire them twice.
type TemplateService struct {
	store     store.TemplateStore
	session   *session.Session
	entries   *EntryService
	selection *Selection
	logger    *slog.Logger

	mu            sync.Mutex
	templates     []core.Template
	pendingAction string
	pendingID     string
	actioning     bool
	errMsg        string
	successMsg    string
}

func NewTemplateService(st store.TemplateStore, sess *session.Session, entries *EntryService, sel *Selection, logger *slog.Logger) *TemplateService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TemplateService{
		store:     st,
		session:   sess,
		entries:   entries,
		selection: sel,
		logger:    logger,
	}
}

// LoadTemplates refreshes the cached template list.
func (s *TemplateService) LoadTemplates(ctx context.Context) error {
	userID, err := s.session.UserID(ctx)
	if err != nil {
		s.setError("Could not resolve the current user.")
		return err
	}
	if userID == "" {
		s.mu.Lock()
		s.templates = nil
		s.mu.Unlock()
		return nil
	}

	templates, err := s.store.ListTemplates(ctx, userID)
	if err != nil {
		s.setError("Could not load templates.")
		s.logger.Error("load templates", "error", err)
		return err
	}
	s.mu.Lock()
	s.templates = templates
	s.errMsg = ""
	s.mu.Unlock()
	return nil
}

// Templates returns a copy of the cached list.
func (s *TemplateService) Templates() []core.Template {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Template, len(s.templates))
	copy(out, s.templates)
	return out
}

// SaveTemplate snapshots the currently loaded entries under the given
// name. A month with nothing in it has nothing worth snapshotting and
// is rejected.
func (s *TemplateService) SaveTemplate(ctx context.Context, name string) (core.Template, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		s.setError("Give the template a name.")
		return core.Template{}, core.ErrEmptyName
	}
	loaded := s.entries.AllEntries()
	if len(loaded) == 0 {
		s.setError("Current month has no entries.")
		return core.Template{}, ErrNoEntries
	}
	userID, err := s.session.UserID(ctx)
	if err != nil || userID == "" {
		s.setError("Sign in to save templates.")
		if err == nil {
			err = ErrNotSignedIn
		}
		return core.Template{}, err
	}

	uncategorizedID := s.entries.categories.UncategorizedCategoryID()
	items := make([]core.TemplateItem, 0, len(loaded))
	for _, e := range loaded {
		categoryID := e.CategoryID
		if categoryID == "" {
			categoryID = uncategorizedID
		}
		items = append(items, core.TemplateItem{
			Name:       e.Name,
			Amount:     e.Amount,
			Type:       e.Type,
			DueDay:     e.DueDay,
			CategoryID: categoryID,
		})
	}
	data, err := json.Marshal(items)
	if err != nil {
		s.setError("Could not save the template.")
		return core.Template{}, err
	}

	created, err := s.store.CreateTemplate(ctx, core.Template{
		Name:   name,
		Data:   string(data),
		UserID: userID,
	})
	if err != nil {
		s.setError("Could not save the template.")
		s.logger.Error("create template", "error", err)
		return core.Template{}, err
	}

	s.mu.Lock()
	s.templates = append(s.templates, created)
	s.errMsg = ""
	s.successMsg = fmt.Sprintf("Saved %q with %d entries.", name, len(items))
	s.mu.Unlock()
	return created, nil
}

// ParseItems decodes a template's snapshot. Corrupt data counts as an
// empty template rather than an error.
func (s *TemplateService) ParseItems(tpl core.Template) []core.TemplateItem {
	var items []core.TemplateItem
	if err := json.Unmarshal([]byte(tpl.Data), &items); err != nil {
		s.logger.Warn("corrupt template data", "template", tpl.ID)
		return nil
	}
	return items
}

// ItemCount is the number of entries a template would create.
func (s *TemplateService) ItemCount(tpl core.Template) int {
	return len(s.ParseItems(tpl))
}

// RequestAction stages a confirmable action for the given template.
func (s *TemplateService) RequestAction(action, templateID string) error {
	if action != TemplateActionApply && action != TemplateActionDelete {
		return fmt.Errorf("unknown template action %q", action)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingAction = action
	s.pendingID = templateID
	return nil
}

// CancelAction drops any staged action.
func (s *TemplateService) CancelAction() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingAction = ""
	s.pendingID = ""
}

// PendingAction returns the staged action and template id, if any.
func (s *TemplateService) PendingAction() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingAction, s.pendingID
}

// ConfirmAction executes the staged action. Re-entrant calls while an
// action is in flight are ignored.
func (s *TemplateService) ConfirmAction(ctx context.Context) error {
	s.mu.Lock()
	if s.actioning || s.pendingAction == "" {
		s.mu.Unlock()
		return nil
	}
	action := s.pendingAction
	id := s.pendingID
	s.actioning = true
	s.pendingAction = ""
	s.pendingID = ""
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.actioning = false
		s.mu.Unlock()
	}()

	tpl, ok := s.templateByID(id)
	if !ok {
		s.setError("That template no longer exists.")
		return store.ErrNotFound
	}

	switch action {
	case TemplateActionApply:
		return s.apply(ctx, tpl)
	case TemplateActionDelete:
		return s.delete(ctx, tpl)
	}
	return nil
}

// apply creates every snapshot item in the selected month and year on
// top of whatever is already there. Creates are dispatched concurrently
// and joined; already created entries stay when one fails. The entries
// reload afterwards so the view reflects what actually landed.
func (s *TemplateService) apply(ctx context.Context, tpl core.Template) error {
	items := s.ParseItems(tpl)
	g, gctx := errgroup.WithContext(ctx)
	for _, item := range items {
		input := normalizeItem(item, s.entries.categories)
		g.Go(func() error {
			_, err := s.entries.SaveEntry(gctx, input)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		s.setError("Could not apply the whole template.")
		s.logger.Error("apply template", "template", tpl.ID, "error", err)
		return err
	}
	if err := s.entries.LoadEntries(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	s.errMsg = ""
	s.successMsg = fmt.Sprintf("Applied %q: %d entries added to %s.", tpl.Name, len(items), s.selection.Month())
	s.mu.Unlock()
	return nil
}

func (s *TemplateService) delete(ctx context.Context, tpl core.Template) error {
	userID, err := s.session.UserID(ctx)
	if err != nil || userID == "" {
		if err == nil {
			err = ErrNotSignedIn
		}
		return err
	}
	if err := s.store.DeleteTemplate(ctx, tpl.ID, userID); err != nil {
		s.setError("Could not delete the template.")
		s.logger.Error("delete template", "template", tpl.ID, "error", err)
		return err
	}
	s.mu.Lock()
	kept := s.templates[:0]
	for _, t := range s.templates {
		if t.ID != tpl.ID {
			kept = append(kept, t)
		}
	}
	s.templates = kept
	s.errMsg = ""
	s.successMsg = fmt.Sprintf("Deleted %q.", tpl.Name)
	s.mu.Unlock()
	return nil
}

func (s *TemplateService) templateByID(id string) (core.Template, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.templates {
		if t.ID == id {
			return t, true
		}
	}
	return core.Template{}, false
}

func (s *TemplateService) ErrorMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

func (s *TemplateService) SuccessMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.successMsg
}

func (s *TemplateService) setError(msg string) {
	s.mu.Lock()
	s.errMsg = msg
	s.successMsg = ""
	s.mu.Unlock()
}

// normalizeItem fills usable defaults for snapshot items that predate
// stricter entry validation or were edited by hand.
func normalizeItem(item core.TemplateItem, cats *CategoryService) EntryInput {
	input := EntryInput{
		Name:       strings.TrimSpace(item.Name),
		Amount:     item.Amount,
		Type:       item.Type,
		DueDay:     item.DueDay,
		CategoryID: item.CategoryID,
	}
	if input.Name == "" {
		input.Name = "Untitled"
	}
	if !input.Type.Valid() {
		input.Type = core.Expense
	}
	if math.IsNaN(input.Amount) || math.IsInf(input.Amount, 0) {
		input.Amount = 0
	}
	if input.DueDay != nil && (*input.DueDay < 1 || *input.DueDay > 31) {
		input.DueDay = nil
	}
	if input.CategoryID == "" {
		input.CategoryID = cats.UncategorizedCategoryID()
	}
	return input
}
