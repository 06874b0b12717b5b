// Package resolver turns edited lists of manageable items into the ordered
// network actions that reconcile them with the server.
package resolver

import (
	"strings"

	"github.com/alexanderramin/expedit/internal/domain"
)

// Method is the HTTP verb an action maps to.
type Method string

const (
	MethodPost Method = "post"
	MethodPut  Method = "put"
	MethodDel  Method = "del"
)

// endpoints maps each sub-resource key to its REST collection.
var endpoints = map[domain.ResourceKey]string{
	domain.KeyHighlights:           "custom-highlights",
	domain.KeyIncluded:             "custom-included",
	domain.KeyNonIncluded:          "custom-non-included",
	domain.KeyImportantInformation: "custom-important-information",
}

// Endpoint returns the collection name for key.
func Endpoint(key domain.ResourceKey) (string, error) {
	ep, ok := endpoints[key]
	if !ok {
		return "", &domain.UnknownResourceKeyError{Key: key}
	}
	return ep, nil
}

// Options stamps created and edited items.
type Options struct {
	CurationFlowCode     domain.FlowCode
	ToBeEditedStatusCode domain.StatusCode
}

// Payload is the POST/PUT body of a manageable item.
type Payload struct {
	ExperienceID       string            `json:"experience_id"`
	LanguageCode       string            `json:"language_code"`
	FlowCode           domain.FlowCode   `json:"flow_code"`
	StatusCode         domain.StatusCode `json:"status_code"`
	Name               string            `json:"name"`
	VisualizationOrder int               `json:"visualization_order"`
	Code               string            `json:"code"`
}

// Action is one network call. ID is set for put and del; Item for post and put.
type Action struct {
	Method   Method
	Endpoint string
	ID       string
	Item     *Payload
	// Source is the index of the input item the action was derived from.
	Source int
}

// Target is the request path relative to the API root.
func (a Action) Target() string {
	if a.ID == "" {
		return a.Endpoint
	}
	return a.Endpoint + "/" + a.ID
}

// FilterRemoved drops items tagged REMOVE. They were added and discarded
// locally and must never reach Resolve.
func FilterRemoved(items []domain.ManageableItem) []domain.ManageableItem {
	out := make([]domain.ManageableItem, 0, len(items))
	for _, it := range items {
		if it.Action == domain.ActionRemove {
			continue
		}
		out = append(out, it)
	}
	return out
}

// Normalize coerces items with an empty name to NOOP: the user cleared the
// entry and there is nothing to persist. DELETE only needs an id, and the
// id and REMOVE checks of Resolve apply whatever the name, so those items
// keep their action.
func Normalize(items []domain.ManageableItem) []domain.ManageableItem {
	out := make([]domain.ManageableItem, len(items))
	for i, it := range items {
		if strings.TrimSpace(it.Name) == "" && clearable(it) {
			it.Action = domain.ActionNoop
		}
		out[i] = it
	}
	return out
}

func clearable(it domain.ManageableItem) bool {
	switch it.Action {
	case domain.ActionCreate, domain.ActionUnset, domain.ActionNoop:
		return true
	case domain.ActionEdit:
		return it.HasID()
	default:
		return false
	}
}

// fold is the accumulator threaded through the item list.
type fold struct {
	order   int
	actions []Action
}

// Resolve computes the actions that reconcile items for experienceID under
// key. Surviving items get a dense zero-based visualization order following
// their input position; deleted items vacate their slot.
// Resolve is pure and returns on the first structural error.
func Resolve(experienceID string, key domain.ResourceKey, items []domain.ManageableItem, opts Options) ([]Action, error) {
	endpoint, err := Endpoint(key)
	if err != nil {
		return nil, err
	}

	acc := fold{actions: make([]Action, 0, len(items))}
	for i, it := range Normalize(items) {
		switch it.Action {
		case domain.ActionUnset, domain.ActionNoop:
			acc.order++

		case domain.ActionEdit:
			if !it.HasID() {
				return nil, &domain.MissingIDError{Action: domain.ActionEdit}
			}
			acc.actions = append(acc.actions, Action{
				Method:   MethodPut,
				Endpoint: endpoint,
				ID:       it.IDValue(),
				Item:     stamp(experienceID, it, acc.order, opts),
				Source:   i,
			})
			acc.order++

		case domain.ActionCreate:
			acc.actions = append(acc.actions, Action{
				Method:   MethodPost,
				Endpoint: endpoint,
				Item:     stamp(experienceID, it, acc.order, opts),
				Source:   i,
			})
			acc.order++

		case domain.ActionDelete:
			if !it.HasID() {
				return nil, &domain.MissingIDError{Action: domain.ActionDelete}
			}
			acc.actions = append(acc.actions, Action{
				Method:   MethodDel,
				Endpoint: endpoint,
				ID:       it.IDValue(),
				Source:   i,
			})

		case domain.ActionRemove:
			return nil, &domain.InvariantViolationError{Message: domain.ErrRemoveReachedResolver}

		default:
			return nil, &domain.UnknownActionError{Action: it.Action}
		}
	}
	return acc.actions, nil
}

// Settle returns the list the server holds once every action in actions
// succeeded. items is the list the actions were resolved from, with server
// ids already set on created items; persisted is the last list read from the
// server. Deleted items and cleared items that were never persisted are
// dropped. Sent items take the order they were sent with; the others are
// unchanged on the server, so their persisted copy is kept when there is
// one. Actions are cleared.
func Settle(items []domain.ManageableItem, actions []Action, persisted []domain.ManageableItem) []domain.ManageableItem {
	sent := make(map[int]int, len(actions))
	for _, a := range actions {
		if a.Item != nil {
			sent[a.Source] = a.Item.VisualizationOrder
		}
	}
	byID := make(map[string]domain.ManageableItem, len(persisted))
	for _, it := range persisted {
		if it.HasID() {
			byID[it.IDValue()] = it
		}
	}

	out := make([]domain.ManageableItem, 0, len(items))
	for i, it := range Normalize(items) {
		if it.Action == domain.ActionDelete || it.Action == domain.ActionRemove {
			continue
		}
		if order, ok := sent[i]; ok {
			it.VisualizationOrder = order
		} else if prev, ok := byID[it.IDValue()]; ok && it.HasID() {
			it = prev
		} else if !it.HasID() {
			continue
		}
		it.Action = domain.ActionUnset
		out = append(out, it)
	}
	return out
}

func stamp(experienceID string, it domain.ManageableItem, order int, opts Options) *Payload {
	return &Payload{
		ExperienceID:       experienceID,
		LanguageCode:       it.LanguageCode,
		FlowCode:           opts.CurationFlowCode,
		StatusCode:         opts.ToBeEditedStatusCode,
		Name:               it.Name,
		VisualizationOrder: order,
		Code:               it.Code,
	}
}
