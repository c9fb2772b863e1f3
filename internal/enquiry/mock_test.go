package enquiry

import (
	"context"
	"fmt"
	"maps"
	"strings"

	"github.com/isp-standards/enquiry-intake/internal/model"
)

// fakeStore is an in-memory Store with snapshot-based transaction semantics,
// so tests can assert that a failed assembly leaves no writes behind.
type fakeStore struct {
	customers map[string]model.Customer
	products  map[string]model.Product
	enquiries map[string]model.Enquiry
	hashes    map[string]model.EnquiryHash
	seq       int64

	createProductCalls int
	createProductErrAt int // 1-based call index that fails; 0 disables
	errInsertEnquiry   error
	errGetFingerprint  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		customers: map[string]model.Customer{},
		products:  map[string]model.Product{},
		enquiries: map[string]model.Enquiry{},
		hashes:    map[string]model.EnquiryHash{},
	}
}

func (f *fakeStore) addCustomer(c model.Customer) {
	f.customers[c.CustomerID] = c
}

func (f *fakeStore) addProduct(p model.Product) {
	f.products[p.ProductID] = p
}

func (f *fakeStore) GetCustomer(_ context.Context, customerID string) (*model.Customer, error) {
	c, ok := f.customers[customerID]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (f *fakeStore) GetProduct(_ context.Context, productID string) (*model.Product, error) {
	p, ok := f.products[productID]
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

func (f *fakeStore) CreateProduct(_ context.Context, p *model.Product) error {
	f.createProductCalls++
	if f.createProductErrAt > 0 && f.createProductCalls == f.createProductErrAt {
		return fmt.Errorf("create product: injected failure")
	}
	f.products[p.ProductID] = *p
	return nil
}

func (f *fakeStore) UpdateProduct(_ context.Context, p *model.Product) error {
	if _, ok := f.products[p.ProductID]; !ok {
		return fmt.Errorf("update product: %s not found", p.ProductID)
	}
	f.products[p.ProductID] = *p
	return nil
}

func (f *fakeStore) NextEnquiryName(_ context.Context) (string, error) {
	f.seq++
	return fmt.Sprintf("ENQ-%03d", f.seq), nil
}

func (f *fakeStore) InsertEnquiry(_ context.Context, e *model.Enquiry) error {
	if f.errInsertEnquiry != nil {
		return f.errInsertEnquiry
	}
	f.enquiries[e.EnquiryID] = *e
	return nil
}

func (f *fakeStore) GetFingerprint(_ context.Context, hash string) (*model.EnquiryHash, error) {
	if f.errGetFingerprint != nil {
		return nil, f.errGetFingerprint
	}
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

// InTx snapshots all state, runs fn against the same store, and restores the
// snapshot when fn fails.
func (f *fakeStore) InTx(_ context.Context, fn func(Store) error) error {
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
