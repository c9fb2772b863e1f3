package ingest

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/isp-standards/enquiry-intake/internal/enquiry"
	"github.com/isp-standards/enquiry-intake/internal/extract"
	"github.com/isp-standards/enquiry-intake/internal/mail"
	"github.com/isp-standards/enquiry-intake/internal/model"
	"github.com/isp-standards/enquiry-intake/internal/store"
)

type fakeFetcher struct {
	email *mail.InboundEmail
	err   error
}

func (f *fakeFetcher) FetchLatest(context.Context) (*mail.InboundEmail, error) {
	return f.email, f.err
}

type fakeExtractor struct {
	data *extract.ExtractedData
	err  error
}

func (f *fakeExtractor) Extract(context.Context, string, time.Time) (*extract.ExtractedData, error) {
	return f.data, f.err
}

type fakeAck struct {
	calls []mail.AckDetails
	err   error
}

func (f *fakeAck) SendAcknowledgment(_ context.Context, details mail.AckDetails) error {
	f.calls = append(f.calls, details)
	return f.err
}

// memStore is an in-memory store.Store for orchestration tests.
type memStore struct {
	customers map[string]model.Customer
	products  map[string]model.Product
	enquiries map[string]model.Enquiry
	hashes    map[string]model.EnquiryHash
	parsing   map[string]model.ParsingStatus
	changes   []model.ChangeLog
	seq       int64

	errInsertEnquiry error
}

func newMemStore() *memStore {
	return &memStore{
		customers: map[string]model.Customer{},
		products:  map[string]model.Product{},
		enquiries: map[string]model.Enquiry{},
		hashes:    map[string]model.EnquiryHash{},
		parsing:   map[string]model.ParsingStatus{},
	}
}

func (m *memStore) CreateCustomer(_ context.Context, c *model.Customer) error {
	m.customers[c.CustomerID] = *c
	return nil
}

func (m *memStore) GetCustomer(_ context.Context, id string) (*model.Customer, error) {
	c, ok := m.customers[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *memStore) GetCustomerByEmail(_ context.Context, email string) (*model.Customer, error) {
	for _, c := range m.customers {
		if strings.EqualFold(c.Email, email) {
			match := c
			return &match, nil
		}
	}
	return nil, nil
}

func (m *memStore) ListCustomers(context.Context, store.CustomerFilter) ([]model.Customer, error) {
	return nil, nil
}

func (m *memStore) UpdateCustomer(context.Context, string, model.CustomerPatch) (*model.Customer, error) {
	return nil, nil
}

func (m *memStore) CreateProduct(_ context.Context, p *model.Product) error {
	m.products[p.ProductID] = *p
	return nil
}

func (m *memStore) GetProduct(_ context.Context, id string) (*model.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *memStore) FindProductByIdentifiers(_ context.Context, chemicalName, casNumber, catNumber string) (*model.Product, error) {
	if chemicalName == "" && casNumber == "" && catNumber == "" {
		return nil, nil
	}
	for _, p := range m.products {
		if (chemicalName != "" && strings.EqualFold(chemicalName, p.ChemicalName)) ||
			(casNumber != "" && strings.EqualFold(casNumber, p.CASNumber)) ||
			(catNumber != "" && strings.EqualFold(catNumber, p.CatNumber)) {
			match := p
			return &match, nil
		}
	}
	return nil, nil
}

func (m *memStore) ListProducts(context.Context, store.ProductFilter) ([]model.Product, error) {
	return nil, nil
}

func (m *memStore) UpdateProduct(_ context.Context, p *model.Product) error {
	m.products[p.ProductID] = *p
	return nil
}

func (m *memStore) NextEnquiryName(context.Context) (string, error) {
	m.seq++
	return fmt.Sprintf("ENQ-%03d", m.seq), nil
}

func (m *memStore) InsertEnquiry(_ context.Context, e *model.Enquiry) error {
	if m.errInsertEnquiry != nil {
		return m.errInsertEnquiry
	}
	m.enquiries[e.EnquiryID] = *e
	return nil
}

func (m *memStore) GetEnquiry(_ context.Context, id string) (*model.Enquiry, error) {
	e, ok := m.enquiries[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (m *memStore) ListEnquiries(context.Context, store.EnquiryFilter) ([]model.Enquiry, error) {
	return nil, nil
}

func (m *memStore) UpdateEnquiry(context.Context, string, model.EnquiryPatch) (*model.Enquiry, error) {
	return nil, nil
}

func (m *memStore) GetFingerprint(_ context.Context, hash string) (*model.EnquiryHash, error) {
	h, ok := m.hashes[hash]
	if !ok {
		return nil, nil
	}
	return &h, nil
}

func (m *memStore) RecordFingerprint(_ context.Context, hash, enquiryID string) error {
	m.hashes[hash] = model.EnquiryHash{Hash: hash, EnquiryID: enquiryID}
	return nil
}

func (m *memStore) GetParsingStatus(_ context.Context, enquiryID string) (*model.ParsingStatus, error) {
	ps, ok := m.parsing[enquiryID]
	if !ok {
		return nil, nil
	}
	return &ps, nil
}

func (m *memStore) SetParsingStatus(_ context.Context, ps *model.ParsingStatus) error {
	m.parsing[ps.EnquiryID] = *ps
	return nil
}

func (m *memStore) InsertChangeLog(_ context.Context, entry *model.ChangeLog) error {
	entry.LogID = int64(len(m.changes) + 1)
	m.changes = append(m.changes, *entry)
	return nil
}

func (m *memStore) ListChangeLogs(context.Context, int, int) ([]model.ChangeLog, error) {
	return m.changes, nil
}

func (m *memStore) InTx(_ context.Context, fn func(enquiry.Store) error) error {
	customers := maps.Clone(m.customers)
	products := maps.Clone(m.products)
	enquiries := maps.Clone(m.enquiries)
	hashes := maps.Clone(m.hashes)
	seq := m.seq

	if err := fn(m); err != nil {
		m.customers = customers
		m.products = products
		m.enquiries = enquiries
		m.hashes = hashes
		m.seq = seq
		return err
	}
	return nil
}

func (m *memStore) Migrate(context.Context) error { return nil }
func (m *memStore) Close() error                  { return nil }
