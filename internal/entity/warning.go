package entity

import "fmt"

// WarningKind classifies a recoverable extraction problem.
type WarningKind string

const (
	WarnFieldAbsent            WarningKind = "field_absent"
	WarnNumericUnparseable     WarningKind = "numeric_unparseable"
	WarnSegmentationAmbiguous  WarningKind = "segmentation_ambiguous"
	WarnReconciliationMismatch WarningKind = "reconciliation_mismatch"
	WarnTotalAbsence           WarningKind = "total_absence"
	WarnItemDropped            WarningKind = "item_dropped"
	WarnItemCorrected          WarningKind = "item_corrected"
)

// Warning is collected alongside a parsed record instead of failing the parse.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Field   string      `json:"field,omitempty"`
	Message string      `json:"message"`
	Line    int         `json:"line,omitempty"`
}

func (w Warning) String() string {
	if w.Field != "" {
		return fmt.Sprintf("%s[%s]: %s", w.Kind, w.Field, w.Message)
	}
	return fmt.Sprintf("%s: %s", w.Kind, w.Message)
}
