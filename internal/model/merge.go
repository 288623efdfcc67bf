package model

// Merge combines a transfer already in the local collection with a partial
// response from the logistics service. Fields the response omits (zero
// values / nil pointers) keep whatever was known locally, so a status-only
// PATCH response does not wipe the item list or route that an earlier GET
// already filled in.
func Merge(existing, patch Transferencia) Transferencia {
	out := existing

	if patch.ID != 0 {
		out.ID = patch.ID
	}
	if patch.OriginHeadquartersID != "" {
		out.OriginHeadquartersID = patch.OriginHeadquartersID
	}
	if patch.OriginWarehouseID != 0 {
		out.OriginWarehouseID = patch.OriginWarehouseID
	}
	if patch.DestinationHeadquartersID != "" {
		out.DestinationHeadquartersID = patch.DestinationHeadquartersID
	}
	if patch.DestinationWarehouseID != 0 {
		out.DestinationWarehouseID = patch.DestinationWarehouseID
	}
	if patch.Items != nil {
		out.Items = patch.Items
	}
	if patch.Observation != nil {
		out.Observation = patch.Observation
	}
	if patch.Status != "" {
		out.Status = patch.Status
	}
	if patch.CreatorUserID != 0 {
		out.CreatorUserID = patch.CreatorUserID
	}
	if patch.ApproveUserID != nil {
		out.ApproveUserID = patch.ApproveUserID
	}
	if patch.RejectionReason != nil {
		out.RejectionReason = patch.RejectionReason
	}
	if patch.RequestDate != nil {
		out.RequestDate = patch.RequestDate
	}
	if patch.ResponseDate != nil {
		out.ResponseDate = patch.ResponseDate
	}
	if patch.CompletionDate != nil {
		out.CompletionDate = patch.CompletionDate
	}
	if patch.TotalQuantity != 0 {
		out.TotalQuantity = patch.TotalQuantity
	}
	return out
}
