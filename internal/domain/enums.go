package domain

// StatusCode is the editorial lifecycle state of a document.
type StatusCode string

const (
	StatusInCreation   StatusCode = "IN_CREATION"
	StatusUpToDate     StatusCode = "UP_TO_DATE"
	StatusInReview     StatusCode = "IN_REVIEW"
	StatusSentToReview StatusCode = "SENT_TO_REVIEW"
	StatusReady        StatusCode = "READY"
	StatusToBeEdit     StatusCode = "TO_BE_EDIT"
)

// ValidStatusCodes is the canonical set of accepted status code strings.
var ValidStatusCodes = map[StatusCode]bool{
	StatusInCreation: true, StatusUpToDate: true, StatusInReview: true,
	StatusSentToReview: true, StatusReady: true, StatusToBeEdit: true,
}

// FlowCode identifies the editorial stage a document belongs to.
type FlowCode string

const (
	FlowBase              FlowCode = "BASE"
	FlowCuration          FlowCode = "CURATION"
	FlowManualTranslation FlowCode = "MANUAL_TRANSLATION"
	FlowAutoTranslation   FlowCode = "AUTOTRANSLATION"
	FlowMedia             FlowCode = "MEDIA"
)

// ValidFlowCodes is the canonical set of accepted flow codes.
var ValidFlowCodes = map[FlowCode]bool{
	FlowBase: true, FlowCuration: true, FlowManualTranslation: true, FlowAutoTranslation: true, FlowMedia: true,
}

// DocumentKind selects which backend resource a document mirrors.
type DocumentKind string

const (
	KindRaw         DocumentKind = "raw"
	KindTranslation DocumentKind = "translation"
	KindMedia       DocumentKind = "media"
)

// ValidDocumentKinds is the canonical set of accepted document kinds.
var ValidDocumentKinds = map[DocumentKind]bool{
	KindRaw: true, KindTranslation: true, KindMedia: true,
}

// KindForFlow maps a flow code to the document kind whose snapshots record it.
func KindForFlow(flow FlowCode) DocumentKind {
	switch flow {
	case FlowManualTranslation, FlowAutoTranslation:
		return KindTranslation
	case FlowMedia:
		return KindMedia
	default:
		return KindRaw
	}
}

// Action is the user intent attached to a manageable item.
// The zero value means "no intent recorded" and behaves like NOOP.
type Action string

const (
	ActionUnset  Action = ""
	ActionNoop   Action = "NOOP"
	ActionEdit   Action = "EDIT"
	ActionCreate Action = "CREATE"
	ActionDelete Action = "DELETE"
	ActionRemove Action = "REMOVE"
)

// ResourceKey names one of the list-valued sub-resources of an experience.
type ResourceKey string

const (
	KeyHighlights           ResourceKey = "highlights"
	KeyIncluded             ResourceKey = "included"
	KeyNonIncluded          ResourceKey = "non_included"
	KeyImportantInformation ResourceKey = "important_information"
)

// ResourceKeys lists the sub-resource keys in display order.
var ResourceKeys = []ResourceKey{
	KeyHighlights, KeyIncluded, KeyNonIncluded, KeyImportantInformation,
}

// Event is the user action that accompanies a save.
type Event string

const (
	EventEdit    Event = "edit"
	EventPublish Event = "publish"
)
