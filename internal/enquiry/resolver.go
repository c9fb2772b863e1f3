package enquiry

import (
	"context"
	"encoding/hex"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/isp-standards/enquiry-intake/internal/model"
)

// Defaults applied to catalog entries auto-created during resolution.
const (
	placeholderProductName = "Unnamed Product"
	catNumberPrefix        = "ISP-A"
	defaultInventoryStatus = "custom_synthesis"
	defaultCountryOfOrigin = "india"
)

// Candidate carries the identifying fields of one line item's product claim.
// Empty strings and nil pointers mean "not supplied".
type Candidate struct {
	ProductID       string
	ProductName     string
	ChemicalName    string
	CASNumber       string
	CatNumber       string
	MolecularWeight *float64
}

// Resolver matches incoming product claims to catalog entries, or creates
// new pending entries when nothing matches.
type Resolver struct {
	store Store
}

// NewResolver creates a product resolver.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve finds the catalog product for a candidate or creates one.
// Lookup order:
//  1. Explicit product id, when the caller supplied one.
//  2. A single OR query over chemical_name, cas_number and cat_number,
//     case-insensitive; any one field matching counts as a hit. With all
//     three absent the lookup is skipped entirely.
//
// On a hit the existing product is merged in place: incoming non-null fields
// overwrite, absent fields keep the stored value. On a miss a new pending
// product is created. Returns the product and whether it was newly created.
func (r *Resolver) Resolve(ctx context.Context, c Candidate) (*model.Product, bool, error) {
	if c.ProductID != "" {
		existing, err := r.store.GetProduct(ctx, c.ProductID)
		if err != nil {
			return nil, false, eris.Wrapf(err, "resolve: get product %s", c.ProductID)
		}
		if existing != nil {
			if err := r.merge(ctx, existing, c); err != nil {
				return nil, false, err
			}
			return existing, false, nil
		}
	}

	if c.ChemicalName != "" || c.CASNumber != "" || c.CatNumber != "" {
		existing, err := r.store.FindProductByIdentifiers(ctx, c.ChemicalName, c.CASNumber, c.CatNumber)
		if err != nil {
			return nil, false, eris.Wrap(err, "resolve: find by identifiers")
		}
		if existing != nil {
			zap.L().Debug("resolve: matched existing product",
				zap.String("product_id", existing.ProductID),
				zap.String("chemical_name", c.ChemicalName),
			)
			if err := r.merge(ctx, existing, c); err != nil {
				return nil, false, err
			}
			return existing, false, nil
		}
	}

	created, err := r.create(ctx, c)
	if err != nil {
		return nil, false, err
	}
	return created, true, nil
}

// merge overwrites the existing product's fields with the candidate's
// non-null values and persists the result. Fields the candidate leaves
// blank are never nulled out.
func (r *Resolver) merge(ctx context.Context, p *model.Product, c Candidate) error {
	changed := false
	if c.ChemicalName != "" && c.ChemicalName != p.ChemicalName {
		p.ChemicalName = c.ChemicalName
		changed = true
	}
	if c.CASNumber != "" && c.CASNumber != p.CASNumber {
		p.CASNumber = c.CASNumber
		changed = true
	}
	if c.CatNumber != "" && c.CatNumber != p.CatNumber {
		p.CatNumber = c.CatNumber
		changed = true
	}
	if c.MolecularWeight != nil && (p.MolecularWeight == nil || *p.MolecularWeight != *c.MolecularWeight) {
		p.MolecularWeight = c.MolecularWeight
		changed = true
	}
	if !changed {
		return nil
	}
	if err := r.store.UpdateProduct(ctx, p); err != nil {
		return eris.Wrapf(err, "resolve: update product %s", p.ProductID)
	}
	return nil
}

// create inserts a new catalog entry with auto-created defaults. The
// generated cat number is not verified unique before insert; the collision
// probability over 6 hex characters is ignored.
func (r *Resolver) create(ctx context.Context, c Candidate) (*model.Product, error) {
	name := c.ChemicalName
	if name == "" {
		name = c.ProductName
	}
	if name == "" {
		name = placeholderProductName
	}

	catNumber := c.CatNumber
	if catNumber == "" {
		catNumber = GenerateCatNumber()
	}

	p := &model.Product{
		ProductID:       uuid.NewString(),
		ProductName:     name,
		ChemicalName:    c.ChemicalName,
		CASNumber:       c.CASNumber,
		CatNumber:       catNumber,
		MolecularWeight: c.MolecularWeight,
		ApprovalStatus:  model.ApprovalPending,
		InventoryStatus: defaultInventoryStatus,
		CountryOfOrigin: defaultCountryOfOrigin,
	}

	if err := r.store.CreateProduct(ctx, p); err != nil {
		return nil, eris.Wrapf(err, "resolve: create product %s", p.ProductName)
	}

	zap.L().Info("resolve: created new product",
		zap.String("product_id", p.ProductID),
		zap.String("product_name", p.ProductName),
		zap.String("cat_number", p.CatNumber),
	)

	return p, nil
}

// GenerateCatNumber produces a placeholder catalog number: the fixed prefix
// plus six random hex characters.
func GenerateCatNumber() string {
	u := uuid.New()
	return catNumberPrefix + hex.EncodeToString(u[:])[:6]
}

// CoerceStandards maps an extracted standards value onto the supported enum,
// defaulting to USA when the value is absent or unrecognized. The email path
// coerces; the portal path rejects instead.
func CoerceStandards(s string) model.Standards {
	if model.Standards(s).Valid() {
		return model.Standards(s)
	}
	return model.StandardsUSA
}
