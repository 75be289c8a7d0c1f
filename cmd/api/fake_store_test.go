package main

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/farxc/calculo-rescisao/internal/logger"
	"github.com/farxc/calculo-rescisao/internal/rescisao"
	"github.com/farxc/calculo-rescisao/internal/store"
)

var errFake = errors.New("fake storage failure")

type memStore struct {
	mu sync.Mutex

	responses map[string]json.RawMessage
	proventos map[string][]store.ProventoRow
	descontos map[string][]store.DescontoRow

	failDelete bool
}

func newMemStore() *memStore {
	return &memStore{
		responses: map[string]json.RawMessage{},
		proventos: map[string][]store.ProventoRow{},
		descontos: map[string][]store.DescontoRow{},
	}
}

func (m *memStore) DeleteProventos(ctx context.Context, id string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDelete {
		return 0, errFake
	}
	n := int64(len(m.proventos[id]))
	delete(m.proventos, id)
	return n, nil
}

func (m *memStore) DeleteDescontos(ctx context.Context, id string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDelete {
		return 0, errFake
	}
	n := int64(len(m.descontos[id]))
	delete(m.descontos, id)
	return n, nil
}

func (m *memStore) InsertProvento(ctx context.Context, row *store.ProventoRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row.ID = int64(len(m.proventos[row.CalculationID]) + 1)
	m.proventos[row.CalculationID] = append(m.proventos[row.CalculationID], *row)
	return nil
}

func (m *memStore) InsertDesconto(ctx context.Context, row *store.DescontoRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row.ID = int64(len(m.descontos[row.CalculationID]) + 1)
	m.descontos[row.CalculationID] = append(m.descontos[row.CalculationID], *row)
	return nil
}

func (m *memStore) InTx(ctx context.Context, fn func(tx store.VerbaWriter) error) error {
	return fn(m)
}

func (m *memStore) ListProventos(ctx context.Context, id string) ([]store.ProventoRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]store.ProventoRow(nil), m.proventos[id]...), nil
}

func (m *memStore) ListDescontos(ctx context.Context, id string) ([]store.DescontoRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]store.DescontoRow(nil), m.descontos[id]...), nil
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
	m.responses[id] = nil
	return nil
}

func newTestApplication(ms *memStore) *application {
	log := logger.NewNop()
	reconciler := rescisao.NewReconciler(ms, log)
	return &application{
		config:   config{addr: ":0", env: "test"},
		store:    store.Storage{Calculations: ms, Verbas: ms},
		pipeline: rescisao.NewService(ms, ms, reconciler, log),
		logger:   log,
	}
}
