package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isp-standards/enquiry-intake/internal/enquiry"
	"github.com/isp-standards/enquiry-intake/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func customerRow(c model.Customer) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"customer_id", "name", "email", "phone", "mobile", "landline", "address",
		"organization", "department", "title", "tag", "flag", "contact_owner",
	}).AddRow(
		c.CustomerID, c.Name, c.Email, c.Phone, c.Mobile, c.Landline, c.Address,
		c.Organization, c.Department, c.Title, c.Tag, c.Flag, c.ContactOwner,
	)
}

func productRow(p model.Product) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"product_id", "product_name", "cas_number", "cat_number", "chemical_name",
		"molecular_formula", "molecular_weight", "smiles", "source", "description", "tag",
		"approval_status", "inventory_status", "image", "hsn_code", "shipping_temperature",
		"ambient", "technical_data", "country_of_origin",
	}).AddRow(
		p.ProductID, p.ProductName, p.CASNumber, p.CatNumber, p.ChemicalName,
		p.MolecularFormula, p.MolecularWeight, p.SMILES, p.Source, p.Description, p.Tag,
		p.ApprovalStatus, p.InventoryStatus, p.Image, p.HSNCode, p.ShippingTemperature,
		p.Ambient, p.TechnicalData, p.CountryOfOrigin,
	)
}

func TestPostgresStore_GetCustomer_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM customers WHERE customer_id = \$1`).
		WithArgs("cust-missing").
		WillReturnError(pgx.ErrNoRows)

	c, err := s.GetCustomer(context.Background(), "cust-missing")
	require.NoError(t, err)
	assert.Nil(t, c)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetCustomer_Found(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	want := model.Customer{
		CustomerID:   "cust-1",
		Name:         "Asha Patel",
		Email:        "asha@acmechem.example",
		Organization: "Acme Chemicals",
		ContactOwner: "ISP Email",
	}
	mock.ExpectQuery(`FROM customers WHERE customer_id = \$1`).
		WithArgs("cust-1").
		WillReturnRows(customerRow(want))

	got, err := s.GetCustomer(context.Background(), "cust-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want, *got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetCustomerByEmail_CaseInsensitive(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	want := model.Customer{CustomerID: "cust-2", Name: "Ravi", Email: "ravi@lab.example"}
	mock.ExpectQuery(`FROM customers WHERE LOWER\(email\) = LOWER\(\$1\)`).
		WithArgs("Ravi@Lab.Example").
		WillReturnRows(customerRow(want))

	got, err := s.GetCustomerByEmail(context.Background(), "Ravi@Lab.Example")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "cust-2", got.CustomerID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateCustomer(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO customers`).
		WithArgs("cust-3", "Priya", "priya@lab.example", "", "", "", "", "", "", "", "", "", "ISP Email").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.CreateCustomer(context.Background(), &model.Customer{
		CustomerID:   "cust-3",
		Name:         "Priya",
		Email:        "priya@lab.example",
		ContactOwner: "ISP Email",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateCustomer_PartialPatch(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	phone := "+91-22-5550"
	updated := model.Customer{CustomerID: "cust-1", Name: "Asha Patel", Email: "asha@acmechem.example", Phone: phone}
	mock.ExpectQuery(`UPDATE customers SET`).
		WithArgs("cust-1",
			nil, nil, &phone, nil, nil, nil, nil, nil, nil, nil, nil, nil).
		WillReturnRows(customerRow(updated))

	got, err := s.UpdateCustomer(context.Background(), "cust-1", model.CustomerPatch{Phone: &phone})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, phone, got.Phone)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateCustomer_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	name := "Nobody"
	mock.ExpectQuery(`UPDATE customers SET`).
		WillReturnError(pgx.ErrNoRows)

	got, err := s.UpdateCustomer(context.Background(), "cust-missing", model.CustomerPatch{Name: &name})
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FindProductByIdentifiers_Hit(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	want := model.Product{
		ProductID:       "prod-1",
		ProductName:     "Paracetamol",
		CASNumber:       "103-90-2",
		CatNumber:       "ISP-A1a2b3",
		ChemicalName:    "Paracetamol",
		ApprovalStatus:  model.ApprovalApproved,
		InventoryStatus: "custom_synthesis",
		CountryOfOrigin: "india",
	}
	mock.ExpectQuery(`FROM products`).
		WithArgs("Paracetamol", "103-90-2", "").
		WillReturnRows(productRow(want))

	got, err := s.FindProductByIdentifiers(context.Background(), "Paracetamol", "103-90-2", "")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "prod-1", got.ProductID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FindProductByIdentifiers_AllEmptySkipsLookup(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	got, err := s.FindProductByIdentifiers(context.Background(), "", "", "")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_NextEnquiryName_Format(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT nextval\('enquiry_name_seq'\)`).
		WillReturnRows(pgxmock.NewRows([]string{"nextval"}).AddRow(int64(1)))
	mock.ExpectQuery(`SELECT nextval\('enquiry_name_seq'\)`).
		WillReturnRows(pgxmock.NewRows([]string{"nextval"}).AddRow(int64(1042)))

	name, err := s.NextEnquiryName(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ENQ-001", name)

	name, err = s.NextEnquiryName(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ENQ-1042", name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_InsertEnquiry_HeaderAndItems(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	now := time.Date(2025, 9, 25, 1, 53, 0, 0, time.UTC)
	e := &model.Enquiry{
		EnquiryID:       "isp09/25/0042",
		EnquiryName:     "ENQ-007",
		CustomerID:      "cust-1",
		EnquiryDatetime: now,
		Status:          model.EnquiryOpen,
		IsEnquiryActive: true,
		EnquiryChannel:  model.ChannelPortal,
		Products: []model.EnquiryProduct{
			{EnquiryID: "isp09/25/0042", ProductID: "prod-1", Quantity: 2.5, Standards: "USA", Flag: model.FlagKnown},
			{EnquiryID: "isp09/25/0042", ProductID: "prod-2", Quantity: 1, Standards: "UK", Flag: model.FlagUnknown},
		},
	}

	mock.ExpectExec(`INSERT INTO enquiries`).
		WithArgs("isp09/25/0042", "ENQ-007", "cust-1", now, model.EnquiryOpen, true, model.ChannelPortal).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(`INSERT INTO enquiry_products`).
		WithArgs("isp09/25/0042", "prod-1", 2.5, "", nil, "", "", nil, "", "USA", "y", "").
		WillReturnRows(pgxmock.NewRows([]string{"enquiry_product_id"}).AddRow(int64(11)))
	mock.ExpectQuery(`INSERT INTO enquiry_products`).
		WithArgs("isp09/25/0042", "prod-2", 1.0, "", nil, "", "", nil, "", "UK", "n", "").
		WillReturnRows(pgxmock.NewRows([]string{"enquiry_product_id"}).AddRow(int64(12)))

	err := s.InsertEnquiry(context.Background(), e)
	require.NoError(t, err)
	assert.Equal(t, int64(11), e.Products[0].EnquiryProductID)
	assert.Equal(t, int64(12), e.Products[1].EnquiryProductID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetEnquiry_LoadsLineItems(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	now := time.Date(2025, 9, 25, 1, 53, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM enquiries WHERE enquiry_id = \$1`).
		WithArgs("isp09/25/0042").
		WillReturnRows(pgxmock.NewRows([]string{
			"enquiry_id", "enquiry_name", "customer_id", "enquiry_datetime", "status",
			"is_enquiry_active", "enquiry_channel",
		}).AddRow("isp09/25/0042", "ENQ-007", "cust-1", now, model.EnquiryOpen, true, model.ChannelPortal))
	mock.ExpectQuery(`FROM enquiry_products`).
		WithArgs("isp09/25/0042").
		WillReturnRows(pgxmock.NewRows([]string{
			"enquiry_product_id", "enquiry_id", "product_id", "quantity",
			"chemical_name", "price", "cas_number", "cat_number", "molecular_weight", "variant",
			"standards", "flag", "attachment_ref",
		}).AddRow(int64(11), "isp09/25/0042", "prod-1", 2.5, "Paracetamol", nil, "", "", nil, "", "USA", "y", ""))

	got, err := s.GetEnquiry(context.Background(), "isp09/25/0042")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Products, 1)
	assert.Equal(t, "prod-1", got.Products[0].ProductID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetEnquiry_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM enquiries WHERE enquiry_id = \$1`).
		WithArgs("isp00/00/0000").
		WillReturnError(pgx.ErrNoRows)

	got, err := s.GetEnquiry(context.Background(), "isp00/00/0000")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetFingerprint_NotSeen(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM enquiry_hash WHERE hash = \$1`).
		WithArgs("deadbeef").
		WillReturnError(pgx.ErrNoRows)

	got, err := s.GetFingerprint(context.Background(), "deadbeef")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_RecordFingerprint(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO enquiry_hash`).
		WithArgs("deadbeef", "isp09/25/0042", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.RecordFingerprint(context.Background(), "deadbeef", "isp09/25/0042")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SetParsingStatus_Upsert(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`ON CONFLICT \(enquiry_id\) DO UPDATE`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.SetParsingStatus(context.Background(), &model.ParsingStatus{
		ParsingStatusID: "ps-1",
		EnquiryID:       "isp09/25/0042",
		Status:          model.ParsingPending,
		Message:         "Enquiry queued for parsing",
		Timestamp:       time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_InsertChangeLog_FillsID(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`INSERT INTO change_log`).
		WillReturnRows(pgxmock.NewRows([]string{"log_id"}).AddRow(int64(99)))

	entry := &model.ChangeLog{
		TableName: "enquiries",
		RecordID:  "isp09/25/0042",
		Action:    "create",
		UserID:    "system",
		Timestamp: time.Now().UTC(),
	}
	err := s.InsertChangeLog(context.Background(), entry)
	require.NoError(t, err)
	assert.Equal(t, int64(99), entry.LogID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_InTx_CommitsOnSuccess(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT nextval\('enquiry_name_seq'\)`).
		WillReturnRows(pgxmock.NewRows([]string{"nextval"}).AddRow(int64(3)))
	mock.ExpectCommit()

	err := s.InTx(context.Background(), func(txs enquiry.Store) error {
		name, err := txs.NextEnquiryName(context.Background())
		if err != nil {
			return err
		}
		assert.Equal(t, "ENQ-003", name)
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_InTx_RollsBackOnError(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	boom := errors.New("boom")
	mock.ExpectBegin()
	mock.ExpectRollback()

	err := s.InTx(context.Background(), func(enquiry.Store) error {
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListEnquiries_FiltersByStatus(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	now := time.Now().UTC()
	mock.ExpectQuery(`FROM enquiries`).
		WithArgs("open", 10, 0).
		WillReturnRows(pgxmock.NewRows([]string{
			"enquiry_id", "enquiry_name", "customer_id", "enquiry_datetime", "status",
			"is_enquiry_active", "enquiry_channel",
		}).AddRow("isp09/25/0001", "ENQ-001", "cust-1", now, model.EnquiryOpen, true, model.ChannelEmail))
	mock.ExpectQuery(`FROM enquiry_products`).
		WithArgs("isp09/25/0001").
		WillReturnRows(pgxmock.NewRows([]string{
			"enquiry_product_id", "enquiry_id", "product_id", "quantity",
			"chemical_name", "price", "cas_number", "cat_number", "molecular_weight", "variant",
			"standards", "flag", "attachment_ref",
		}))

	got, err := s.ListEnquiries(context.Background(), EnquiryFilter{Status: "open"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ENQ-001", got[0].EnquiryName)
	assert.NoError(t, mock.ExpectationsWereMet())
}
