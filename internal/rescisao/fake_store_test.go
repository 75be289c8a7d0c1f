package rescisao

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/farxc/calculo-rescisao/internal/store"
)

var errFake = errors.New("fake storage failure")

// memStore is an in-memory stand-in for the calculos, proventos and
// descontos tables.
type memStore struct {
	mu sync.Mutex

	responses map[string]json.RawMessage
	proventos map[string][]store.ProventoRow
	descontos map[string][]store.DescontoRow

	failDeleteProventos bool
	failDeleteDescontos bool
	failClearResponse   bool
	failInsertNamed     map[string]bool
}

func newMemStore() *memStore {
	return &memStore{
		responses:       map[string]json.RawMessage{},
		proventos:       map[string][]store.ProventoRow{},
		descontos:       map[string][]store.DescontoRow{},
		failInsertNamed: map[string]bool{},
	}
}

func (m *memStore) DeleteProventos(ctx context.Context, id string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDeleteProventos {
		return 0, errFake
	}
	n := int64(len(m.proventos[id]))
	delete(m.proventos, id)
	return n, nil
}

func (m *memStore) DeleteDescontos(ctx context.Context, id string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDeleteDescontos {
		return 0, errFake
	}
	n := int64(len(m.descontos[id]))
	delete(m.descontos, id)
	return n, nil
}

func (m *memStore) InsertProvento(ctx context.Context, row *store.ProventoRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failInsertNamed[row.NomeProvento] {
		return errFake
	}
	m.proventos[row.CalculationID] = append(m.proventos[row.CalculationID], *row)
	return nil
}

func (m *memStore) InsertDesconto(ctx context.Context, row *store.DescontoRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failInsertNamed[row.NomeDesconto] {
		return errFake
	}
	m.descontos[row.CalculationID] = append(m.descontos[row.CalculationID], *row)
	return nil
}

// InTx snapshots the tables and restores them when fn fails.
func (m *memStore) InTx(ctx context.Context, fn func(tx store.VerbaWriter) error) error {
	m.mu.Lock()
	proventos := make(map[string][]store.ProventoRow, len(m.proventos))
	for k, v := range m.proventos {
		proventos[k] = append([]store.ProventoRow(nil), v...)
	}
	descontos := make(map[string][]store.DescontoRow, len(m.descontos))
	for k, v := range m.descontos {
		descontos[k] = append([]store.DescontoRow(nil), v...)
	}
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.proventos, m.descontos = proventos, descontos
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *memStore) GetAIResponse(ctx context.Context, id string) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.responses[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return raw, nil
}

func (m *memStore) SaveAIResponse(ctx context.Context, id string, resposta json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.responses[id]; !ok {
		return store.ErrNotFound
	}
	m.responses[id] = resposta
	return nil
}

func (m *memStore) ClearAIResponse(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failClearResponse {
		return errFake
	}
	m.responses[id] = nil
	return nil
}

func (m *memStore) proventoNames(id string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, r := range m.proventos[id] {
		out = append(out, r.NomeProvento)
	}
	return out
}

func (m *memStore) descontoNames(id string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, r := range m.descontos[id] {
		out = append(out, r.NomeDesconto)
	}
	return out
}
