package service

import (
	"context"
	"errors"
	"sync"

	"github.com/DominidM/MKapu-Import-Frontend-sub000/internal/dto"
	"github.com/DominidM/MKapu-Import-Frontend-sub000/internal/infra"
	"github.com/DominidM/MKapu-Import-Frontend-sub000/internal/model"
)

// TransferAPI is the protocol client contract the store drives. Implemented
// by *infra.TransferClient; tests plug in stubs.
type TransferAPI interface {
	RequestAggregated(ctx context.Context, req dto.SolicitarTransferenciaRequest, role string) (*model.Transferencia, error)
	Approve(ctx context.Context, id int64, req dto.AprobarTransferenciaRequest, role string) (*model.Transferencia, error)
	Reject(ctx context.Context, id int64, req dto.RechazarTransferenciaRequest, role string) (*model.Transferencia, error)
	ConfirmReceipt(ctx context.Context, id int64, req dto.ConfirmarRecepcionRequest, role string) (*model.Transferencia, error)
	GetByID(ctx context.Context, id int64, role string) (*model.Transferencia, error)
	ListAll(ctx context.Context, role string) ([]model.Transferencia, error)
	ListByHeadquarters(ctx context.Context, hqID string, role string) ([]model.Transferencia, error)
}

// TransferNotifier receives fire-and-forget lifecycle events. Enqueue
// failures are the notifier's problem; the store never propagates them.
type TransferNotifier interface {
	TransferEvent(ctx context.Context, event string, transfer model.Transferencia)
}

// TransferStore owns the in-memory collection of known transfers and the
// currently selected transfer. Every lifecycle transition goes through the
// protocol client and only backend-confirmed state is reflected back — there
// are no optimistic transitions. All state lives behind one mutex; observers
// either poll the snapshot getters or listen on Subscribe.
type TransferStore struct {
	api      TransferAPI
	sessions SessionProvider
	notifier TransferNotifier // optional

	mu                sync.Mutex
	transfers         []model.Transferencia
	selected          *model.Transferencia
	inflight          int
	lastErr           error
	conflictProductID *int64
	draft             *DraftBuilder
	lastLoadedHQ      *string
	subscribers       []chan struct{}

	// loadGen tags every list load; a response settling after a newer load
	// was issued is discarded instead of overwriting fresher data.
	loadGen uint64
}

// NewTransferStore wires the store to its protocol client and session
// context. notifier may be nil.
func NewTransferStore(api TransferAPI, sessions SessionProvider, notifier TransferNotifier) *TransferStore {
	return &TransferStore{
		api:      api,
		sessions: sessions,
		notifier: notifier,
		draft:    NewDraftBuilder(sessions),
	}
}

// ─── Observation ─────────────────────────────────────────────────────────────

// Subscribe returns a channel that receives a signal after every state
// change. The channel has capacity 1 and signals are coalesced; slow
// consumers never block the store.
func (s *TransferStore) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.subscribers = append(s.subscribers, ch)
	s.mu.Unlock()
	return ch
}

func (s *TransferStore) notifyLocked() {
	for _, ch := range s.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Transfers returns a copy of the known-transfers collection in display order.
func (s *TransferStore) Transfers() []model.Transferencia {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Transferencia, len(s.transfers))
	copy(out, s.transfers)
	return out
}

// Selected returns the currently selected transfer, or nil.
func (s *TransferStore) Selected() *model.Transferencia {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return nil
	}
	sel := *s.selected
	return &sel
}

// Count is the number of known transfers.
func (s *TransferStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.transfers)
}

// Loading reports whether at least one operation is in flight.
func (s *TransferStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight > 0
}

// Err returns the error recorded by the most recent failed operation, or nil.
func (s *TransferStore) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// ErrorMessage returns the user-facing message for the recorded error.
func (s *TransferStore) ErrorMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return resolveErrorMessage(s.lastErr)
}

// ConflictProductID returns the product id of the line item that caused the
// last 409, so the UI can highlight exactly one line. Nil when the last
// failure was not a parseable conflict.
func (s *TransferStore) ConflictProductID() *int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conflictProductID == nil {
		return nil
	}
	id := *s.conflictProductID
	return &id
}

// FilteredByStatus returns the known transfers currently in the given status.
func (s *TransferStore) FilteredByStatus(status string) []model.Transferencia {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Transferencia
	for _, t := range s.transfers {
		if t.Status == status {
			out = append(out, t)
		}
	}
	return out
}

// ─── Loads ───────────────────────────────────────────────────────────────────

// LoadAll replaces the collection with every transfer the service knows
// about. On failure the collection is cleared so stale rows are never shown
// next to an error banner. Returns the collection after reconciliation.
func (s *TransferStore) LoadAll(ctx context.Context) ([]model.Transferencia, error) {
	gen := s.beginLoad()
	list, err := s.api.ListAll(ctx, s.roleFor(ctx))
	return s.settleLoad(gen, nil, list, err)
}

// LoadByHeadquarters replaces the collection with the transfers visible to
// one sede.
func (s *TransferStore) LoadByHeadquarters(ctx context.Context, hqID string) ([]model.Transferencia, error) {
	gen := s.beginLoad()
	list, err := s.api.ListByHeadquarters(ctx, hqID, s.roleFor(ctx))
	return s.settleLoad(gen, &hqID, list, err)
}

// LoadByID fetches one transfer, selects it, and upserts it into the
// collection so list and detail views stay consistent without a second
// round trip.
func (s *TransferStore) LoadByID(ctx context.Context, id int64) (*model.Transferencia, error) {
	s.beginOp()
	transfer, err := s.api.GetByID(ctx, id, s.roleFor(ctx))

	s.mu.Lock()
	defer s.endOpLocked()

	if err != nil {
		s.lastErr = err
		s.selected = nil
		return nil, err
	}
	s.upsertLocked(*transfer, false)
	sel := *transfer
	s.selected = &sel
	return transfer, nil
}

// roleFor resolves the acting role for read calls: the per-request role when
// the caller propagated one, the session context's role otherwise.
func (s *TransferStore) roleFor(ctx context.Context) string {
	if role := infra.RoleFromContext(ctx); role != "" {
		return role
	}
	return s.sessions.Current().Role
}

func (s *TransferStore) beginLoad() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight++
	s.lastErr = nil
	s.loadGen++
	s.notifyLocked()
	return s.loadGen
}

// settleLoad commits a list response unless a newer load was issued while
// this one was in flight; stale responses are discarded wholesale.
func (s *TransferStore) settleLoad(gen uint64, hqID *string, list []model.Transferencia, err error) ([]model.Transferencia, error) {
	s.mu.Lock()
	defer s.endOpLocked()

	if gen != s.loadGen {
		out := make([]model.Transferencia, len(s.transfers))
		copy(out, s.transfers)
		return out, nil
	}

	if err != nil {
		s.lastErr = err
		s.transfers = nil
		return nil, err
	}

	s.lastLoadedHQ = hqID
	s.transfers = make([]model.Transferencia, len(list))
	copy(s.transfers, list)

	out := make([]model.Transferencia, len(list))
	copy(out, list)
	return out, nil
}

// ─── Lifecycle operations ────────────────────────────────────────────────────

// CreateAggregated submits a new multi-item transfer. On success the created
// transfer is prepended to the collection and selected; on a 409 the
// offending product id is recorded alongside the error.
func (s *TransferStore) CreateAggregated(ctx context.Context, req dto.SolicitarTransferenciaRequest) (*model.Transferencia, error) {
	s.beginOp()
	s.mu.Lock()
	s.conflictProductID = nil
	s.mu.Unlock()

	created, err := s.api.RequestAggregated(ctx, req, infra.RoleJefeAlmacen)

	s.mu.Lock()
	defer s.endOpLocked()

	if err != nil {
		s.lastErr = err
		var apiErr *infra.TransferAPIError
		if errors.As(err, &apiErr) && apiErr.Conflict != nil {
			id := apiErr.Conflict.ProductID
			s.conflictProductID = &id
		}
		return nil, err
	}

	s.upsertLocked(*created, true)
	sel := *created
	s.selected = &sel
	s.emitEvent(ctx, created.Status, *created)
	return created, nil
}

// CreateFromDraft materializes the embedded draft, submits it, and resets
// the draft on success. On failure — validation or remote — the draft
// survives unchanged for retry.
func (s *TransferStore) CreateFromDraft(ctx context.Context) (*model.Transferencia, error) {
	s.mu.Lock()
	req, err := s.draft.BuildRequest()
	if err != nil {
		s.lastErr = err
		s.notifyLocked()
		s.mu.Unlock()
		return nil, err
	}
	s.mu.Unlock()

	created, createErr := s.CreateAggregated(ctx, *req)
	if createErr != nil {
		return nil, createErr
	}

	s.mu.Lock()
	s.draft.Reset()
	s.conflictProductID = nil
	s.notifyLocked()
	s.mu.Unlock()
	return created, nil
}

// Approve transitions SOLICITADA → APROBADA through the backend.
func (s *TransferStore) Approve(ctx context.Context, id int64, req dto.AprobarTransferenciaRequest) (*model.Transferencia, error) {
	return s.updateStatus(ctx, func(ctx context.Context) (*model.Transferencia, error) {
		return s.api.Approve(ctx, id, req, infra.RoleAdministrador)
	})
}

// Reject transitions SOLICITADA → RECHAZADA; the reason travels in req.
func (s *TransferStore) Reject(ctx context.Context, id int64, req dto.RechazarTransferenciaRequest) (*model.Transferencia, error) {
	return s.updateStatus(ctx, func(ctx context.Context) (*model.Transferencia, error) {
		return s.api.Reject(ctx, id, req, infra.RoleAdministrador)
	})
}

// ConfirmReceipt transitions APROBADA → COMPLETADA.
func (s *TransferStore) ConfirmReceipt(ctx context.Context, id int64, req dto.ConfirmarRecepcionRequest) (*model.Transferencia, error) {
	return s.updateStatus(ctx, func(ctx context.Context) (*model.Transferencia, error) {
		return s.api.ConfirmReceipt(ctx, id, req, infra.RoleAdministrador)
	})
}

// updateStatus is the shared reconciliation path for the three transitions:
// on success merge-upsert the returned transfer and select it, on failure
// record the error and leave the collection untouched. Terminal-state
// violations are the backend's call — it answers with a domain error that
// lands here like any other failure.
func (s *TransferStore) updateStatus(ctx context.Context, call func(context.Context) (*model.Transferencia, error)) (*model.Transferencia, error) {
	s.beginOp()
	updated, err := call(ctx)

	s.mu.Lock()
	defer s.endOpLocked()

	if err != nil {
		s.lastErr = err
		return nil, err
	}

	s.upsertLocked(*updated, false)
	sel := *updated
	s.selected = &sel
	s.emitEvent(ctx, updated.Status, *updated)
	return updated, nil
}

// beginOp marks an operation in flight; observers see Loading flip before
// the network call is issued.
func (s *TransferStore) beginOp() {
	s.mu.Lock()
	s.inflight++
	s.lastErr = nil
	s.notifyLocked()
	s.mu.Unlock()
}

// endOpLocked finishes an operation and releases the mutex the caller holds.
func (s *TransferStore) endOpLocked() {
	s.inflight--
	s.notifyLocked()
	s.mu.Unlock()
}

// upsertLocked inserts the transfer (prepended when prepend is true) or
// merges it over the existing entry with the same id, keeping locally-known
// fields the response omitted.
func (s *TransferStore) upsertLocked(transfer model.Transferencia, prepend bool) {
	for i, existing := range s.transfers {
		if existing.ID == transfer.ID {
			s.transfers[i] = model.Merge(existing, transfer)
			return
		}
	}
	if prepend {
		s.transfers = append([]model.Transferencia{transfer}, s.transfers...)
		return
	}
	s.transfers = append(s.transfers, transfer)
}

// emitEvent hands a confirmed transition to the notifier on a detached
// goroutine: callers hold the store mutex and the notifier may do a network
// round trip. The context outlives the originating request on purpose.
func (s *TransferStore) emitEvent(ctx context.Context, event string, transfer model.Transferencia) {
	if s.notifier == nil {
		return
	}
	go s.notifier.TransferEvent(context.WithoutCancel(ctx), event, transfer)
}

// ─── Draft facade ────────────────────────────────────────────────────────────

func (s *TransferStore) SetDraftOrigin(hqID string, warehouseID int64) {
	s.withDraft(func(d *DraftBuilder) { d.SetOrigin(hqID, warehouseID) })
}

func (s *TransferStore) SetDraftDestination(hqID string, warehouseID int64) {
	s.withDraft(func(d *DraftBuilder) { d.SetDestination(hqID, warehouseID) })
}

func (s *TransferStore) SetDraftOriginWarehouse(warehouseID int64) {
	s.withDraft(func(d *DraftBuilder) { d.SetOriginWarehouse(warehouseID) })
}

func (s *TransferStore) SetDraftDestinationWarehouse(warehouseID int64) {
	s.withDraft(func(d *DraftBuilder) { d.SetDestinationWarehouse(warehouseID) })
}

func (s *TransferStore) SetDraftUser(userID int64) {
	s.withDraft(func(d *DraftBuilder) { d.SetUser(userID) })
}

func (s *TransferStore) SetDraftObservation(text string) {
	s.withDraft(func(d *DraftBuilder) { d.SetObservation(text) })
}

func (s *TransferStore) UpsertDraftItem(productID int64, deltaQuantity int) {
	s.withDraft(func(d *DraftBuilder) { d.UpsertItem(productID, deltaQuantity) })
}

func (s *TransferStore) SetDraftItemQuantity(productID int64, quantity int) {
	s.withDraft(func(d *DraftBuilder) { d.SetItemQuantity(productID, quantity) })
}

func (s *TransferStore) RemoveDraftItem(productID int64) {
	s.withDraft(func(d *DraftBuilder) { d.RemoveItem(productID) })
}

func (s *TransferStore) ResetDraft() {
	s.mu.Lock()
	s.draft.Reset()
	s.conflictProductID = nil
	s.notifyLocked()
	s.mu.Unlock()
}

// CanSubmit reports the embedded draft's submit-readiness.
func (s *TransferStore) CanSubmit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.CanSubmit()
}

// DraftTotalQuantity is the total requested quantity across the draft.
func (s *TransferStore) DraftTotalQuantity() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.TotalQuantity()
}

// DraftItems returns the draft's current lines.
func (s *TransferStore) DraftItems() []dto.ItemTransferenciaRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.Items()
}

func (s *TransferStore) withDraft(fn func(*DraftBuilder)) {
	s.mu.Lock()
	fn(s.draft)
	s.notifyLocked()
	s.mu.Unlock()
}

// resolveErrorMessage turns any recorded error into the message the UI shows.
func resolveErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *infra.TransferAPIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}
