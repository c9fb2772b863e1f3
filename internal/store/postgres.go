package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/isp-standards/enquiry-intake/internal/db"
	"github.com/isp-standards/enquiry-intake/internal/enquiry"
	"github.com/isp-standards/enquiry-intake/internal/model"
)

// PostgresStore implements Store using pgx. The zero pool value is invalid;
// construct with NewPostgres or bind to a transaction via InTx.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *db.PoolConfig) (*PostgresStore, error) {
	pool, err := db.Connect(ctx, connString, poolCfg)
	if err != nil {
		return nil, err
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS customers (
	customer_id   TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	email         TEXT NOT NULL UNIQUE,
	phone         TEXT NOT NULL DEFAULT '',
	mobile        TEXT NOT NULL DEFAULT '',
	landline      TEXT NOT NULL DEFAULT '',
	address       TEXT NOT NULL DEFAULT '',
	organization  TEXT NOT NULL DEFAULT '',
	department    TEXT NOT NULL DEFAULT '',
	title         TEXT NOT NULL DEFAULT '',
	tag           TEXT NOT NULL DEFAULT '',
	flag          TEXT NOT NULL DEFAULT '',
	contact_owner TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS products (
	product_id           TEXT PRIMARY KEY,
	product_name         TEXT NOT NULL,
	cas_number           TEXT NOT NULL DEFAULT '',
	cat_number           TEXT NOT NULL UNIQUE,
	chemical_name        TEXT NOT NULL DEFAULT '',
	molecular_formula    TEXT NOT NULL DEFAULT '',
	molecular_weight     DOUBLE PRECISION,
	smiles               TEXT NOT NULL DEFAULT '',
	source               TEXT NOT NULL DEFAULT '',
	description          TEXT NOT NULL DEFAULT '',
	tag                  TEXT NOT NULL DEFAULT '',
	approval_status      TEXT NOT NULL DEFAULT 'pending',
	inventory_status     TEXT NOT NULL DEFAULT 'custom_synthesis',
	image                TEXT NOT NULL DEFAULT '',
	hsn_code             TEXT NOT NULL DEFAULT '',
	shipping_temperature TEXT NOT NULL DEFAULT '',
	ambient              TEXT NOT NULL DEFAULT '',
	technical_data       TEXT NOT NULL DEFAULT '',
	country_of_origin    TEXT NOT NULL DEFAULT 'india'
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_products_cas_number
	ON products (LOWER(cas_number)) WHERE cas_number <> '';
CREATE INDEX IF NOT EXISTS idx_products_chemical_name
	ON products (LOWER(chemical_name));

CREATE SEQUENCE IF NOT EXISTS enquiry_name_seq;

CREATE TABLE IF NOT EXISTS enquiries (
	enquiry_id        TEXT PRIMARY KEY,
	enquiry_name      TEXT NOT NULL UNIQUE,
	customer_id       TEXT NOT NULL REFERENCES customers (customer_id),
	enquiry_datetime  TIMESTAMPTZ NOT NULL,
	status            TEXT NOT NULL DEFAULT 'open',
	is_enquiry_active BOOLEAN NOT NULL DEFAULT TRUE,
	enquiry_channel   TEXT NOT NULL DEFAULT 'Email'
);

CREATE TABLE IF NOT EXISTS enquiry_products (
	enquiry_product_id BIGSERIAL PRIMARY KEY,
	enquiry_id         TEXT NOT NULL REFERENCES enquiries (enquiry_id),
	product_id         TEXT NOT NULL REFERENCES products (product_id),
	quantity           DOUBLE PRECISION NOT NULL,
	chemical_name      TEXT NOT NULL DEFAULT '',
	price              DOUBLE PRECISION,
	cas_number         TEXT NOT NULL DEFAULT '',
	cat_number         TEXT NOT NULL DEFAULT '',
	molecular_weight   DOUBLE PRECISION,
	variant            TEXT NOT NULL DEFAULT '',
	standards          TEXT NOT NULL DEFAULT '',
	flag               TEXT NOT NULL DEFAULT '',
	attachment_ref     TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_enquiry_products_enquiry_id
	ON enquiry_products (enquiry_id);

CREATE TABLE IF NOT EXISTS enquiry_hash (
	enquiry_hash_id BIGSERIAL PRIMARY KEY,
	hash            TEXT NOT NULL,
	enquiry_id      TEXT NOT NULL REFERENCES enquiries (enquiry_id),
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_enquiry_hash_hash ON enquiry_hash (hash);

CREATE TABLE IF NOT EXISTS parsing_status (
	parsing_status_id TEXT PRIMARY KEY,
	enquiry_id        TEXT NOT NULL,
	status            TEXT NOT NULL,
	message           TEXT NOT NULL DEFAULT '',
	parsed_data       JSONB,
	error_details     TEXT NOT NULL DEFAULT '',
	timestamp         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_parsing_status_enquiry_id
	ON parsing_status (enquiry_id);

CREATE TABLE IF NOT EXISTS change_log (
	log_id     BIGSERIAL PRIMARY KEY,
	table_name TEXT NOT NULL,
	record_id  TEXT NOT NULL,
	action     TEXT NOT NULL,
	user_id    TEXT NOT NULL,
	timestamp  TIMESTAMPTZ NOT NULL DEFAULT now(),
	details    TEXT NOT NULL DEFAULT ''
);
`

// Migrate creates the schema if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresMigration); err != nil {
		return eris.Wrap(err, "postgres: migrate")
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// InTx runs fn against a store bound to a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
func (s *PostgresStore) InTx(ctx context.Context, fn func(enquiry.Store) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if err := fn(&PostgresStore{pool: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return eris.Wrap(err, "postgres: commit tx")
	}
	return nil
}

// --- Customers ---

const customerColumns = `customer_id, name, email, phone, mobile, landline, address,
	organization, department, title, tag, flag, contact_owner`

func customerDests(c *model.Customer) []any {
	return []any{
		&c.CustomerID, &c.Name, &c.Email, &c.Phone, &c.Mobile, &c.Landline, &c.Address,
		&c.Organization, &c.Department, &c.Title, &c.Tag, &c.Flag, &c.ContactOwner,
	}
}

// CreateCustomer inserts a new customer.
func (s *PostgresStore) CreateCustomer(ctx context.Context, c *model.Customer) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO customers (`+customerColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		c.CustomerID, c.Name, c.Email, c.Phone, c.Mobile, c.Landline, c.Address,
		c.Organization, c.Department, c.Title, c.Tag, c.Flag, c.ContactOwner,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: create customer %s", c.CustomerID)
	}
	return nil
}

// GetCustomer fetches a customer by id. Returns nil when not found.
func (s *PostgresStore) GetCustomer(ctx context.Context, customerID string) (*model.Customer, error) {
	c := &model.Customer{}
	err := s.pool.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE customer_id = $1`, customerID).
		Scan(customerDests(c)...)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get customer %s", customerID)
	}
	return c, nil
}

// GetCustomerByEmail fetches a customer by email, matched case-insensitively.
// Returns nil when not found.
func (s *PostgresStore) GetCustomerByEmail(ctx context.Context, email string) (*model.Customer, error) {
	c := &model.Customer{}
	err := s.pool.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE LOWER(email) = LOWER($1)`, email).
		Scan(customerDests(c)...)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get customer by email %s", email)
	}
	return c, nil
}

// ListCustomers returns a page of customers ordered by id.
func (s *PostgresStore) ListCustomers(ctx context.Context, filter CustomerFilter) ([]model.Customer, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+customerColumns+` FROM customers ORDER BY customer_id LIMIT $1 OFFSET $2`,
		limit, filter.Offset)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list customers")
	}
	defer rows.Close()

	var customers []model.Customer
	for rows.Next() {
		var c model.Customer
		if err := rows.Scan(customerDests(&c)...); err != nil {
			return nil, eris.Wrap(err, "postgres: scan customer")
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

// UpdateCustomer applies a partial-field patch and returns the updated
// customer, or nil when the customer does not exist.
func (s *PostgresStore) UpdateCustomer(ctx context.Context, customerID string, patch model.CustomerPatch) (*model.Customer, error) {
	c := &model.Customer{}
	err := s.pool.QueryRow(ctx, `
		UPDATE customers SET
			name          = COALESCE($2, name),
			email         = COALESCE($3, email),
			phone         = COALESCE($4, phone),
			mobile        = COALESCE($5, mobile),
			landline      = COALESCE($6, landline),
			address       = COALESCE($7, address),
			organization  = COALESCE($8, organization),
			department    = COALESCE($9, department),
			title         = COALESCE($10, title),
			tag           = COALESCE($11, tag),
			flag          = COALESCE($12, flag),
			contact_owner = COALESCE($13, contact_owner)
		WHERE customer_id = $1
		RETURNING `+customerColumns,
		customerID,
		patch.Name, patch.Email, patch.Phone, patch.Mobile, patch.Landline, patch.Address,
		patch.Organization, patch.Department, patch.Title, patch.Tag, patch.Flag, patch.ContactOwner,
	).Scan(customerDests(c)...)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: update customer %s", customerID)
	}
	return c, nil
}

// --- Products ---

const productColumns = `product_id, product_name, cas_number, cat_number, chemical_name,
	molecular_formula, molecular_weight, smiles, source, description, tag,
	approval_status, inventory_status, image, hsn_code, shipping_temperature,
	ambient, technical_data, country_of_origin`

func productDests(p *model.Product) []any {
	return []any{
		&p.ProductID, &p.ProductName, &p.CASNumber, &p.CatNumber, &p.ChemicalName,
		&p.MolecularFormula, &p.MolecularWeight, &p.SMILES, &p.Source, &p.Description, &p.Tag,
		&p.ApprovalStatus, &p.InventoryStatus, &p.Image, &p.HSNCode, &p.ShippingTemperature,
		&p.Ambient, &p.TechnicalData, &p.CountryOfOrigin,
	}
}

// CreateProduct inserts a new catalog entry.
func (s *PostgresStore) CreateProduct(ctx context.Context, p *model.Product) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		p.ProductID, p.ProductName, p.CASNumber, p.CatNumber, p.ChemicalName,
		p.MolecularFormula, p.MolecularWeight, p.SMILES, p.Source, p.Description, p.Tag,
		p.ApprovalStatus, p.InventoryStatus, p.Image, p.HSNCode, p.ShippingTemperature,
		p.Ambient, p.TechnicalData, p.CountryOfOrigin,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: create product %s", p.ProductID)
	}
	return nil
}

// GetProduct fetches a product by id. Returns nil when not found.
func (s *PostgresStore) GetProduct(ctx context.Context, productID string) (*model.Product, error) {
	p := &model.Product{}
	err := s.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE product_id = $1`, productID).
		Scan(productDests(p)...)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get product %s", productID)
	}
	return p, nil
}

// FindProductByIdentifiers looks up a product by case-insensitive equality
// on any of chemical name, CAS number or catalog number. Empty identifiers
// are skipped; with all three empty no lookup happens and nil is returned.
func (s *PostgresStore) FindProductByIdentifiers(ctx context.Context, chemicalName, casNumber, catNumber string) (*model.Product, error) {
	if chemicalName == "" && casNumber == "" && catNumber == "" {
		return nil, nil
	}
	p := &model.Product{}
	err := s.pool.QueryRow(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE ($1 <> '' AND LOWER(chemical_name) = LOWER($1))
		   OR ($2 <> '' AND LOWER(cas_number) = LOWER($2))
		   OR ($3 <> '' AND LOWER(cat_number) = LOWER($3))
		LIMIT 1`,
		chemicalName, casNumber, catNumber).
		Scan(productDests(p)...)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: find product by identifiers")
	}
	return p, nil
}

// ListProducts returns a page of products, optionally filtered by approval
// status.
func (s *PostgresStore) ListProducts(ctx context.Context, filter ProductFilter) ([]model.Product, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE ($1 = '' OR approval_status = $1)
		ORDER BY product_name
		LIMIT $2 OFFSET $3`,
		filter.ApprovalStatus, limit, filter.Offset)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list products")
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(productDests(&p)...); err != nil {
			return nil, eris.Wrap(err, "postgres: scan product")
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// UpdateProduct overwrites an existing product record.
func (s *PostgresStore) UpdateProduct(ctx context.Context, p *model.Product) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE products SET
			product_name=$2, cas_number=$3, cat_number=$4, chemical_name=$5,
			molecular_formula=$6, molecular_weight=$7, smiles=$8, source=$9,
			description=$10, tag=$11, approval_status=$12, inventory_status=$13,
			image=$14, hsn_code=$15, shipping_temperature=$16, ambient=$17,
			technical_data=$18, country_of_origin=$19
		WHERE product_id=$1`,
		p.ProductID,
		p.ProductName, p.CASNumber, p.CatNumber, p.ChemicalName,
		p.MolecularFormula, p.MolecularWeight, p.SMILES, p.Source,
		p.Description, p.Tag, p.ApprovalStatus, p.InventoryStatus,
		p.Image, p.HSNCode, p.ShippingTemperature, p.Ambient,
		p.TechnicalData, p.CountryOfOrigin,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update product %s", p.ProductID)
	}
	return nil
}

// --- Enquiries ---

const enquiryColumns = `enquiry_id, enquiry_name, customer_id, enquiry_datetime, status,
	is_enquiry_active, enquiry_channel`

func enquiryDests(e *model.Enquiry) []any {
	return []any{
		&e.EnquiryID, &e.EnquiryName, &e.CustomerID, &e.EnquiryDatetime, &e.Status,
		&e.IsEnquiryActive, &e.EnquiryChannel,
	}
}

const enquiryProductColumns = `enquiry_product_id, enquiry_id, product_id, quantity,
	chemical_name, price, cas_number, cat_number, molecular_weight, variant,
	standards, flag, attachment_ref`

func enquiryProductDests(ep *model.EnquiryProduct) []any {
	return []any{
		&ep.EnquiryProductID, &ep.EnquiryID, &ep.ProductID, &ep.Quantity,
		&ep.ChemicalName, &ep.Price, &ep.CASNumber, &ep.CatNumber, &ep.MolecularWeight, &ep.Variant,
		&ep.Standards, &ep.Flag, &ep.AttachmentRef,
	}
}

// NextEnquiryName claims the next value from the enquiry name sequence and
// formats it as ENQ-NNN. Sequence claims are atomic, so concurrent
// assemblies never observe the same name.
func (s *PostgresStore) NextEnquiryName(ctx context.Context) (string, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT nextval('enquiry_name_seq')`).Scan(&n); err != nil {
		return "", eris.Wrap(err, "postgres: next enquiry name")
	}
	return fmt.Sprintf("ENQ-%03d", n), nil
}

// InsertEnquiry writes the enquiry header and all of its line items. Callers
// that need atomicity run it inside InTx; the assembler always does.
func (s *PostgresStore) InsertEnquiry(ctx context.Context, e *model.Enquiry) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO enquiries (`+enquiryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.EnquiryID, e.EnquiryName, e.CustomerID, e.EnquiryDatetime, e.Status,
		e.IsEnquiryActive, e.EnquiryChannel,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: insert enquiry %s", e.EnquiryID)
	}

	for i := range e.Products {
		ep := &e.Products[i]
		err := s.pool.QueryRow(ctx, `
			INSERT INTO enquiry_products (
				enquiry_id, product_id, quantity, chemical_name, price,
				cas_number, cat_number, molecular_weight, variant, standards,
				flag, attachment_ref
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING enquiry_product_id`,
			ep.EnquiryID, ep.ProductID, ep.Quantity, ep.ChemicalName, ep.Price,
			ep.CASNumber, ep.CatNumber, ep.MolecularWeight, ep.Variant, ep.Standards,
			ep.Flag, ep.AttachmentRef,
		).Scan(&ep.EnquiryProductID)
		if err != nil {
			return eris.Wrapf(err, "postgres: insert line item %d for %s", i, e.EnquiryID)
		}
	}
	return nil
}

// GetEnquiry fetches an enquiry with its line items. Returns nil when not
// found.
func (s *PostgresStore) GetEnquiry(ctx context.Context, enquiryID string) (*model.Enquiry, error) {
	e := &model.Enquiry{}
	err := s.pool.QueryRow(ctx,
		`SELECT `+enquiryColumns+` FROM enquiries WHERE enquiry_id = $1`, enquiryID).
		Scan(enquiryDests(e)...)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get enquiry %s", enquiryID)
	}

	if err := s.loadLineItems(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// ListEnquiries returns a page of enquiries with line items, optionally
// filtered by status. Newest first.
func (s *PostgresStore) ListEnquiries(ctx context.Context, filter EnquiryFilter) ([]model.Enquiry, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+enquiryColumns+` FROM enquiries
		WHERE ($1 = '' OR status = $1)
		ORDER BY enquiry_datetime DESC
		LIMIT $2 OFFSET $3`,
		filter.Status, limit, filter.Offset)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list enquiries")
	}
	defer rows.Close()

	var enquiries []model.Enquiry
	for rows.Next() {
		var e model.Enquiry
		if err := rows.Scan(enquiryDests(&e)...); err != nil {
			return nil, eris.Wrap(err, "postgres: scan enquiry")
		}
		enquiries = append(enquiries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: list enquiries")
	}

	for i := range enquiries {
		if err := s.loadLineItems(ctx, &enquiries[i]); err != nil {
			return nil, err
		}
	}
	return enquiries, nil
}

func (s *PostgresStore) loadLineItems(ctx context.Context, e *model.Enquiry) error {
	rows, err := s.pool.Query(ctx, `
		SELECT `+enquiryProductColumns+` FROM enquiry_products
		WHERE enquiry_id = $1
		ORDER BY enquiry_product_id`,
		e.EnquiryID)
	if err != nil {
		return eris.Wrapf(err, "postgres: load line items for %s", e.EnquiryID)
	}
	defer rows.Close()

	for rows.Next() {
		var ep model.EnquiryProduct
		if err := rows.Scan(enquiryProductDests(&ep)...); err != nil {
			return eris.Wrap(err, "postgres: scan line item")
		}
		e.Products = append(e.Products, ep)
	}
	return rows.Err()
}

// UpdateEnquiry applies a partial-field patch and returns the updated
// enquiry with its line items, or nil when the enquiry does not exist.
func (s *PostgresStore) UpdateEnquiry(ctx context.Context, enquiryID string, patch model.EnquiryPatch) (*model.Enquiry, error) {
	e := &model.Enquiry{}
	err := s.pool.QueryRow(ctx, `
		UPDATE enquiries SET
			status            = COALESCE($2, status),
			is_enquiry_active = COALESCE($3, is_enquiry_active)
		WHERE enquiry_id = $1
		RETURNING `+enquiryColumns,
		enquiryID, patch.Status, patch.IsEnquiryActive,
	).Scan(enquiryDests(e)...)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: update enquiry %s", enquiryID)
	}

	if err := s.loadLineItems(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// --- Fingerprints ---

// GetFingerprint fetches a fingerprint record by hash value. Returns nil
// when the hash has not been seen.
func (s *PostgresStore) GetFingerprint(ctx context.Context, hash string) (*model.EnquiryHash, error) {
	h := &model.EnquiryHash{}
	err := s.pool.QueryRow(ctx, `
		SELECT enquiry_hash_id, hash, enquiry_id, created_at
		FROM enquiry_hash WHERE hash = $1
		LIMIT 1`, hash).
		Scan(&h.EnquiryHashID, &h.Hash, &h.EnquiryID, &h.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get fingerprint")
	}
	return h, nil
}

// RecordFingerprint persists a fingerprint for an accepted enquiry.
func (s *PostgresStore) RecordFingerprint(ctx context.Context, hash, enquiryID string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO enquiry_hash (hash, enquiry_id, created_at)
		VALUES ($1, $2, $3)`,
		hash, enquiryID, time.Now().UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: record fingerprint for %s", enquiryID)
	}
	return nil
}

// --- Parsing status ---

// GetParsingStatus fetches the parsing status for an enquiry. Returns nil
// when not found.
func (s *PostgresStore) GetParsingStatus(ctx context.Context, enquiryID string) (*model.ParsingStatus, error) {
	ps := &model.ParsingStatus{}
	err := s.pool.QueryRow(ctx, `
		SELECT parsing_status_id, enquiry_id, status, message, parsed_data, error_details, timestamp
		FROM parsing_status WHERE enquiry_id = $1`, enquiryID).
		Scan(&ps.ParsingStatusID, &ps.EnquiryID, &ps.Status, &ps.Message, &ps.ParsedData, &ps.ErrorDetails, &ps.Timestamp)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get parsing status for %s", enquiryID)
	}
	return ps, nil
}

// SetParsingStatus upserts the parsing status for an enquiry, keyed by
// enquiry id so each enquiry keeps a single status row across extraction
// attempts.
func (s *PostgresStore) SetParsingStatus(ctx context.Context, ps *model.ParsingStatus) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO parsing_status (parsing_status_id, enquiry_id, status, message, parsed_data, error_details, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (enquiry_id) DO UPDATE SET
			status = EXCLUDED.status,
			message = EXCLUDED.message,
			parsed_data = EXCLUDED.parsed_data,
			error_details = EXCLUDED.error_details,
			timestamp = EXCLUDED.timestamp`,
		ps.ParsingStatusID, ps.EnquiryID, ps.Status, ps.Message, ps.ParsedData, ps.ErrorDetails, ps.Timestamp,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: set parsing status for %s", ps.EnquiryID)
	}
	return nil
}

// --- Change log ---

// InsertChangeLog appends an audit row and fills in the generated log id.
func (s *PostgresStore) InsertChangeLog(ctx context.Context, entry *model.ChangeLog) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO change_log (table_name, record_id, action, user_id, timestamp, details)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING log_id`,
		entry.TableName, entry.RecordID, entry.Action, entry.UserID, entry.Timestamp, entry.Details,
	).Scan(&entry.LogID)
	if err != nil {
		return eris.Wrap(err, "postgres: insert change log")
	}
	return nil
}

// ListChangeLogs returns a page of audit rows, newest first.
func (s *PostgresStore) ListChangeLogs(ctx context.Context, limit, offset int) ([]model.ChangeLog, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.pool.Query(ctx, `
		SELECT log_id, table_name, record_id, action, user_id, timestamp, details
		FROM change_log
		ORDER BY log_id DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list change logs")
	}
	defer rows.Close()

	var logs []model.ChangeLog
	for rows.Next() {
		var l model.ChangeLog
		if err := rows.Scan(&l.LogID, &l.TableName, &l.RecordID, &l.Action, &l.UserID, &l.Timestamp, &l.Details); err != nil {
			return nil, eris.Wrap(err, "postgres: scan change log")
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
