package service

import (
	"errors"
	"strings"

	"github.com/DominidM/MKapu-Import-Frontend-sub000/internal/dto"
)

// Draft validation failures. These never reach the network — BuildRequest
// reports the first unmet requirement instead of submitting a broken payload.
var (
	ErrDraftRouteIncomplete = errors.New("completa la sede y el almacén de origen y destino")
	ErrDraftSameRoute       = errors.New("el origen y el destino de la transferencia deben ser distintos")
	ErrDraftNoItems         = errors.New("agrega al menos un producto con cantidad mayor a cero")
	ErrDraftNoUser          = errors.New("no se pudo determinar el usuario solicitante")
)

type draftItem struct {
	productID int64
	quantity  int
	series    []string
}

// DraftBuilder accumulates a pending transfer request (route, observation,
// line items) before submission. Items are kept in insertion order and keyed
// by product id: adding an existing product merges quantities, and a merge
// that reaches zero removes the line.
//
// The builder is not safe for concurrent use; the TransferStore serializes
// access to its embedded draft.
type DraftBuilder struct {
	originHQ    string
	originWH    int64
	destHQ      string
	destWH      int64
	userID      int64
	observation string
	items       []draftItem

	sessions SessionProvider
}

// NewDraftBuilder returns an empty draft seeded with the current session's
// user id.
func NewDraftBuilder(sessions SessionProvider) *DraftBuilder {
	b := &DraftBuilder{sessions: sessions}
	b.Reset()
	return b
}

// Reset returns the draft to its empty initial state, re-seeding the user id
// from the session context.
func (b *DraftBuilder) Reset() {
	*b = DraftBuilder{sessions: b.sessions}
	if b.sessions != nil {
		b.userID = b.sessions.Current().EffectiveUserID()
	}
}

// SetOrigin sets the origin sede and, when warehouseID is non-zero, the
// origin warehouse. Passing 0 keeps the previously selected warehouse.
func (b *DraftBuilder) SetOrigin(headquartersID string, warehouseID int64) {
	b.originHQ = headquartersID
	if warehouseID != 0 {
		b.originWH = warehouseID
	}
}

// SetDestination mirrors SetOrigin for the destination endpoint.
func (b *DraftBuilder) SetDestination(headquartersID string, warehouseID int64) {
	b.destHQ = headquartersID
	if warehouseID != 0 {
		b.destWH = warehouseID
	}
}

func (b *DraftBuilder) SetOriginWarehouse(warehouseID int64)      { b.originWH = warehouseID }
func (b *DraftBuilder) SetDestinationWarehouse(warehouseID int64) { b.destWH = warehouseID }
func (b *DraftBuilder) SetUser(userID int64)                      { b.userID = userID }
func (b *DraftBuilder) SetObservation(text string)                { b.observation = text }

// UpsertItem adds deltaQuantity to the product's line. An absent product is
// added at max(1, delta); an existing line is clamped at a floor of 0, and a
// result of 0 removes the line. Both "+1/-1" steppers and bulk adds go
// through here.
func (b *DraftBuilder) UpsertItem(productID int64, deltaQuantity int) {
	for i, item := range b.items {
		if item.productID != productID {
			continue
		}
		next := item.quantity + deltaQuantity
		if next <= 0 {
			b.items = append(b.items[:i], b.items[i+1:]...)
			return
		}
		b.items[i].quantity = next
		return
	}

	quantity := deltaQuantity
	if quantity < 1 {
		quantity = 1
	}
	b.items = append(b.items, draftItem{productID: productID, quantity: quantity})
}

// SetItemQuantity sets an absolute quantity. Zero or negative removes the
// line if present and is a no-op if absent.
func (b *DraftBuilder) SetItemQuantity(productID int64, quantity int) {
	if quantity < 0 {
		quantity = 0
	}
	for i, item := range b.items {
		if item.productID != productID {
			continue
		}
		if quantity == 0 {
			b.items = append(b.items[:i], b.items[i+1:]...)
			return
		}
		b.items[i].quantity = quantity
		return
	}
	if quantity == 0 {
		return
	}
	b.items = append(b.items, draftItem{productID: productID, quantity: quantity})
}

// SetItemSeries attaches serial/unit identifiers to an existing line.
func (b *DraftBuilder) SetItemSeries(productID int64, series []string) {
	for i, item := range b.items {
		if item.productID == productID {
			b.items[i].series = append([]string(nil), series...)
			return
		}
	}
}

// RemoveItem drops the product's line entirely.
func (b *DraftBuilder) RemoveItem(productID int64) {
	for i, item := range b.items {
		if item.productID == productID {
			b.items = append(b.items[:i], b.items[i+1:]...)
			return
		}
	}
}

// Items returns the current lines in insertion order.
func (b *DraftBuilder) Items() []dto.ItemTransferenciaRequest {
	out := make([]dto.ItemTransferenciaRequest, 0, len(b.items))
	for _, item := range b.items {
		out = append(out, dto.ItemTransferenciaRequest{
			ProductID: item.productID,
			Quantity:  item.quantity,
			Series:    item.series,
		})
	}
	return out
}

// TotalQuantity is the sum of all line quantities.
func (b *DraftBuilder) TotalQuantity() int {
	total := 0
	for _, item := range b.items {
		total += item.quantity
	}
	return total
}

// CanSubmit reports whether the draft is structurally valid: both route
// endpoints fully specified, origin route distinct from destination route
// (warehouse granularity — two warehouses inside the same sede is a valid
// transfer, the same warehouse never is), at least one item with a positive
// quantity, and a known requesting user.
func (b *DraftBuilder) CanSubmit() bool {
	return b.validate() == nil
}

func (b *DraftBuilder) validate() error {
	if b.originHQ == "" || b.destHQ == "" || b.originWH <= 0 || b.destWH <= 0 {
		return ErrDraftRouteIncomplete
	}
	if b.originWH == b.destWH {
		// Warehouse granularity: two warehouses inside one sede are a valid
		// route, but one warehouse is never a route even across sede ids.
		return ErrDraftSameRoute
	}
	if len(b.items) == 0 {
		return ErrDraftNoItems
	}
	for _, item := range b.items {
		if item.quantity <= 0 {
			return ErrDraftNoItems
		}
	}
	if b.userID <= 0 {
		return ErrDraftNoUser
	}
	return nil
}

// BuildRequest materializes the draft into the exact payload the protocol
// client expects, or fails with the first unmet validation rule. The
// observation is trimmed and becomes null when empty.
func (b *DraftBuilder) BuildRequest() (*dto.SolicitarTransferenciaRequest, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}

	var observation *string
	if trimmed := strings.TrimSpace(b.observation); trimmed != "" {
		observation = &trimmed
	}

	return &dto.SolicitarTransferenciaRequest{
		OriginHeadquartersID:      b.originHQ,
		OriginWarehouseID:         b.originWH,
		DestinationHeadquartersID: b.destHQ,
		DestinationWarehouseID:    b.destWH,
		UserID:                    b.userID,
		Observation:               observation,
		Items:                     b.Items(),
	}, nil
}

// LoadRequest replaces the draft's contents with an already-assembled
// payload. The HTTP layer uses this to validate aggregated submissions with
// the same rules the interactive draft enforces.
func (b *DraftBuilder) LoadRequest(req dto.SolicitarTransferenciaRequest) {
	b.Reset()
	b.originHQ = req.OriginHeadquartersID
	b.originWH = req.OriginWarehouseID
	b.destHQ = req.DestinationHeadquartersID
	b.destWH = req.DestinationWarehouseID
	if req.UserID > 0 {
		b.userID = req.UserID
	}
	if req.Observation != nil {
		b.observation = *req.Observation
	}
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			continue
		}
		// Duplicate product ids merge quantities, same as interactive adds.
		b.UpsertItem(item.ProductID, item.Quantity)
		if len(item.Series) > 0 {
			b.SetItemSeries(item.ProductID, item.Series)
		}
	}
}
