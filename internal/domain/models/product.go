package models

// SourceRecord is one row of the periodic inventory extract. It is an
// immutable snapshot: within a single extract the product code is the only
// identity a row has.
type SourceRecord struct {
	Code           string
	Name           string
	Category       string
	NetPrice       *float64
	AvailableStock *float64
}

// Product mirrors the live inventory/pricing entity in Odoo. Only the ERP
// mutates it; this service reads it and issues corrective writes.
type Product struct {
	ID            int64    `json:"id"`
	Code          string   `json:"default_code,omitempty"`
	Name          string   `json:"name"`
	ListPrice     *float64 `json:"list_price,omitempty"`
	StandardPrice *float64 `json:"standard_price,omitempty"`
	QtyAvailable  *float64 `json:"qty_available,omitempty"`
	CategoryRef   string   `json:"categ_id,omitempty"`
	Barcode       string   `json:"barcode,omitempty"`
}

// MatchedPair associates an ERP product with its extract counterpart. A pair
// exists only when both sides carry the same non-empty code.
type MatchedPair struct {
	Source SourceRecord
	Erp    Product
}

// Category is an ERP product category reference.
type Category struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	ParentID int64  `json:"parent_id,omitempty"`
}

// StockInfo carries the detailed stock figures Odoo reports for a product.
type StockInfo struct {
	QtyAvailable     float64 `json:"qty_available"`
	VirtualAvailable float64 `json:"virtual_available"`
	IncomingQty      float64 `json:"incoming_qty"`
	OutgoingQty      float64 `json:"outgoing_qty"`
}
