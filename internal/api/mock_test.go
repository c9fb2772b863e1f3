package api

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"strings"

	"github.com/isp-standards/enquiry-intake/internal/enquiry"
	"github.com/isp-standards/enquiry-intake/internal/model"
	"github.com/isp-standards/enquiry-intake/internal/store"
)

// fakeStore is an in-memory store.Store for handler tests.
type fakeStore struct {
	customers map[string]model.Customer
	products  map[string]model.Product
	enquiries map[string]model.Enquiry
	hashes    map[string]model.EnquiryHash
	parsing   map[string]model.ParsingStatus
	changes   []model.ChangeLog
	seq       int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		customers: map[string]model.Customer{},
		products:  map[string]model.Product{},
		enquiries: map[string]model.Enquiry{},
		hashes:    map[string]model.EnquiryHash{},
		parsing:   map[string]model.ParsingStatus{},
	}
}

func (f *fakeStore) CreateCustomer(_ context.Context, c *model.Customer) error {
	f.customers[c.CustomerID] = *c
	return nil
}

func (f *fakeStore) GetCustomer(_ context.Context, id string) (*model.Customer, error) {
	c, ok := f.customers[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (f *fakeStore) GetCustomerByEmail(_ context.Context, email string) (*model.Customer, error) {
	for _, c := range f.customers {
		if strings.EqualFold(c.Email, email) {
			match := c
			return &match, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListCustomers(_ context.Context, filter store.CustomerFilter) ([]model.Customer, error) {
	out := make([]model.Customer, 0, len(f.customers))
	for _, c := range f.customers {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CustomerID < out[j].CustomerID })
	return paginate(out, filter.Limit, filter.Offset), nil
}

func (f *fakeStore) UpdateCustomer(_ context.Context, id string, patch model.CustomerPatch) (*model.Customer, error) {
	c, ok := f.customers[id]
	if !ok {
		return nil, nil
	}
	if patch.Name != nil {
		c.Name = *patch.Name
	}
	if patch.Email != nil {
		c.Email = *patch.Email
	}
	if patch.Phone != nil {
		c.Phone = *patch.Phone
	}
	if patch.Organization != nil {
		c.Organization = *patch.Organization
	}
	f.customers[id] = c
	return &c, nil
}

func (f *fakeStore) CreateProduct(_ context.Context, p *model.Product) error {
	f.products[p.ProductID] = *p
	return nil
}

func (f *fakeStore) GetProduct(_ context.Context, id string) (*model.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (f *fakeStore) FindProductByIdentifiers(_ context.Context, chemicalName, casNumber, catNumber string) (*model.Product, error) {
	if chemicalName == "" && casNumber == "" && catNumber == "" {
		return nil, nil
	}
	for _, p := range f.products {
		if (chemicalName != "" && strings.EqualFold(chemicalName, p.ChemicalName)) ||
			(casNumber != "" && strings.EqualFold(casNumber, p.CASNumber)) ||
			(catNumber != "" && strings.EqualFold(catNumber, p.CatNumber)) {
			match := p
			return &match, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListProducts(_ context.Context, filter store.ProductFilter) ([]model.Product, error) {
	out := make([]model.Product, 0, len(f.products))
	for _, p := range f.products {
		if filter.ApprovalStatus != "" && string(p.ApprovalStatus) != filter.ApprovalStatus {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return paginate(out, filter.Limit, filter.Offset), nil
}

func (f *fakeStore) UpdateProduct(_ context.Context, p *model.Product) error {
	f.products[p.ProductID] = *p
	return nil
}

func (f *fakeStore) NextEnquiryName(context.Context) (string, error) {
	f.seq++
	return fmt.Sprintf("ENQ-%03d", f.seq), nil
}

func (f *fakeStore) InsertEnquiry(_ context.Context, e *model.Enquiry) error {
	f.enquiries[e.EnquiryID] = *e
	return nil
}

func (f *fakeStore) GetEnquiry(_ context.Context, id string) (*model.Enquiry, error) {
	e, ok := f.enquiries[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (f *fakeStore) ListEnquiries(_ context.Context, filter store.EnquiryFilter) ([]model.Enquiry, error) {
	out := make([]model.Enquiry, 0, len(f.enquiries))
	for _, e := range f.enquiries {
		if filter.Status != "" && string(e.Status) != filter.Status {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EnquiryID < out[j].EnquiryID })
	return paginate(out, filter.Limit, filter.Offset), nil
}

func (f *fakeStore) UpdateEnquiry(_ context.Context, id string, patch model.EnquiryPatch) (*model.Enquiry, error) {
	e, ok := f.enquiries[id]
	if !ok {
		return nil, nil
	}
	if patch.Status != nil {
		e.Status = *patch.Status
	}
	if patch.IsEnquiryActive != nil {
		e.IsEnquiryActive = *patch.IsEnquiryActive
	}
	f.enquiries[id] = e
	return &e, nil
}

func (f *fakeStore) GetFingerprint(_ context.Context, hash string) (*model.EnquiryHash, error) {
	h, ok := f.hashes[hash]
	if !ok {
		return nil, nil
	}
	return &h, nil
}

func (f *fakeStore) RecordFingerprint(_ context.Context, hash, enquiryID string) error {
	f.hashes[hash] = model.EnquiryHash{Hash: hash, EnquiryID: enquiryID}
	return nil
}

func (f *fakeStore) GetParsingStatus(_ context.Context, enquiryID string) (*model.ParsingStatus, error) {
	ps, ok := f.parsing[enquiryID]
	if !ok {
		return nil, nil
	}
	return &ps, nil
}

func (f *fakeStore) SetParsingStatus(_ context.Context, ps *model.ParsingStatus) error {
	f.parsing[ps.EnquiryID] = *ps
	return nil
}

func (f *fakeStore) InsertChangeLog(_ context.Context, entry *model.ChangeLog) error {
	entry.LogID = int64(len(f.changes) + 1)
	f.changes = append(f.changes, *entry)
	return nil
}

func (f *fakeStore) ListChangeLogs(_ context.Context, limit, offset int) ([]model.ChangeLog, error) {
	return paginate(f.changes, limit, offset), nil
}

func (f *fakeStore) InTx(_ context.Context, fn func(enquiry.Store) error) error {
	customers := maps.Clone(f.customers)
	products := maps.Clone(f.products)
	enquiries := maps.Clone(f.enquiries)
	hashes := maps.Clone(f.hashes)
	seq := f.seq

	if err := fn(f); err != nil {
		f.customers = customers
		f.products = products
		f.enquiries = enquiries
		f.hashes = hashes
		f.seq = seq
		return err
	}
	return nil
}

func (f *fakeStore) Migrate(context.Context) error { return nil }
func (f *fakeStore) Close() error                  { return nil }

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
