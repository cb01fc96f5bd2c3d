package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/courtsidehq/padel_community/database"
	"github.com/courtsidehq/padel_community/models"
	"github.com/courtsidehq/padel_community/routes"
	"github.com/courtsidehq/padel_community/services"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const testJWTSecret = "integration-test-secret"

func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := startPostgresContainer(ctx)
	if err != nil {
		log.Fatalf("postgres setup failed: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		log.Fatalf("postgres host lookup failed: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		log.Fatalf("postgres port lookup failed: %v", err)
	}

	dsn := fmt.Sprintf("host=%s port=%s user=padel password=padel dbname=padel_test sslmode=disable",
		host, port.Port())
	database.DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError:                           true,
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
		DisableNestedTransaction:                 true,
	})
	if err != nil {
		log.Fatalf("failed to connect to test database: %v", err)
	}
	database.Migrate()

	os.Setenv("JWT_SECRET", testJWTSecret)

	code := m.Run()

	if err := container.Terminate(ctx); err != nil {
		fmt.Printf("cleanup error: %v\n", err)
	}
	os.Exit(code)
}

func startPostgresContainer(ctx context.Context) (testcontainers.Container, error) {
	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "padel",
			"POSTGRES_PASSWORD": "padel",
			"POSTGRES_DB":       "padel_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	return testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
}

func newTestApp() *fiber.App {
	app := fiber.New()
	routes.SessionRoutes(app)
	routes.TemplateRoutes(app)
	routes.BookingRoutes(app)
	routes.PaymentRoutes(app)
	return app
}

func signToken(t *testing.T, user models.User) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": user.ID.String(),
		"role":    user.Role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return signed
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

func seedManagerWithCommunity(t *testing.T, tag string) (models.User, models.Community) {
	t.Helper()

	manager := models.User{
		FullName: "Manager " + tag,
		Email:    fmt.Sprintf("manager-%s-%s@test.local", tag, uuid.NewString()[:8]),
		Password: "hashed",
		Role:     "manager",
	}
	require.NoError(t, database.DB.Create(&manager).Error)

	community := models.Community{
		Name:      "Community " + tag,
		ManagerID: manager.ID,
		IsActive:  true,
	}
	require.NoError(t, database.DB.Create(&community).Error)

	membership := models.CommunityMember{
		CommunityID: community.ID,
		UserID:      manager.ID,
		Status:      "approved",
		Role:        "manager",
	}
	require.NoError(t, database.DB.Create(&membership).Error)

	return manager, community
}

func seedMember(t *testing.T, community models.Community, tag string) models.User {
	t.Helper()

	member := models.User{
		FullName: "Member " + tag,
		Email:    fmt.Sprintf("member-%s-%s@test.local", tag, uuid.NewString()[:8]),
		Password: "hashed",
		Role:     "member",
	}
	require.NoError(t, database.DB.Create(&member).Error)

	membership := models.CommunityMember{
		CommunityID: community.ID,
		UserID:      member.ID,
		Status:      "approved",
		Role:        "member",
	}
	require.NoError(t, database.DB.Create(&membership).Error)

	return member
}

// telrStub stands in for the payment gateway. checkStatus drives what the
// webhook's order check sees; refunds are recorded for assertions.
type telrStub struct {
	server *httptest.Server

	mu          sync.Mutex
	orderRef    string
	checkStatus string
	checkTxnRef string
	refundRefs  []string
}

func newTelrStub(t *testing.T, orderRef string) *telrStub {
	t.Helper()

	stub := &telrStub{orderRef: orderRef}
	stub.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		stub.mu.Lock()
		defer stub.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch payload["ivp_method"] {
		case "create":
			fmt.Fprintf(w, `{"order": {"ref": %q, "url": "https://pay.test/%s"}}`, stub.orderRef, stub.orderRef)
		case "check":
			fmt.Fprintf(w, `{"order": {"ref": %q, "status": {"text": %q}, "transaction": {"ref": %q}}}`,
				stub.orderRef, stub.checkStatus, stub.checkTxnRef)
		case "refund":
			if ref, ok := payload["tran_ref"].(string); ok {
				stub.refundRefs = append(stub.refundRefs, ref)
			}
			fmt.Fprintf(w, `{"order": {"ref": %q}}`, stub.orderRef)
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	t.Cleanup(stub.server.Close)

	t.Setenv("TELR_API_BASE_URL", stub.server.URL)
	return stub
}

func (s *telrStub) setCheckResult(status, txnRef string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkStatus = status
	s.checkTxnRef = txnRef
}

func (s *telrStub) refunds() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.refundRefs...)
}

func TestUpdateSessionRejectsCapacityBelowBookedCount(t *testing.T) {
	app := newTestApp()
	manager, community := seedManagerWithCommunity(t, "capacity")

	session := models.Session{
		CommunityID: community.ID,
		Title:       "Evening Drills",
		Datetime:    time.Now().Add(72 * time.Hour),
		MaxPlayers:  8,
		BookedCount: 6,
		Price:       80,
		Status:      "active",
	}
	require.NoError(t, database.DB.Create(&session).Error)

	path := fmt.Sprintf("/api/v1/communities/%s/sessions/%s", community.ID, session.ID)
	status, body := doJSON(t, app, http.MethodPut, path, signToken(t, manager),
		fiber.Map{"max_players": 4})

	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t,
		"cannot reduce capacity to 4: 6 players have already booked (minimum allowed is 6)",
		body["error"])

	var reloaded models.Session
	require.NoError(t, database.DB.First(&reloaded, "id = ?", session.ID).Error)
	require.Equal(t, 8, reloaded.MaxPlayers)
}

func TestBulkPublishRetryReportsAllDuplicates(t *testing.T) {
	app := newTestApp()
	manager, community := seedManagerWithCommunity(t, "bulk")
	token := signToken(t, manager)

	templates := []models.SessionTemplate{
		{CommunityID: community.ID, Title: "Tuesday Social", DayOfWeek: 2, TimeOfDay: "18:00:00", MaxPlayers: 8, Price: 100, IsActive: true},
		{CommunityID: community.ID, Title: "Thursday Ladder", DayOfWeek: 4, TimeOfDay: "20:00:00", MaxPlayers: 12, Price: 120, IsActive: true},
	}
	for i := range templates {
		require.NoError(t, database.DB.Create(&templates[i]).Error)
	}

	path := fmt.Sprintf("/api/v1/communities/%s/templates/bulk-publish", community.ID)
	payload := fiber.Map{
		"template_ids": []string{templates[0].ID.String(), templates[1].ID.String()},
		"weeks_ahead":  3,
	}

	status, body := doJSON(t, app, http.MethodPost, path, token, payload)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, float64(6), body["created"])
	require.Empty(t, body["errors"])

	var count int64
	require.NoError(t, database.DB.Model(&models.Session{}).
		Where("community_id = ?", community.ID).Count(&count).Error)
	require.EqualValues(t, 6, count)

	// Retrying the exact same publish must create nothing new and surface
	// every collision, not abort the batch.
	status, body = doJSON(t, app, http.MethodPost, path, token, payload)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, float64(0), body["created"])

	publishErrors, ok := body["errors"].([]interface{})
	require.True(t, ok)
	require.Len(t, publishErrors, 6)
	for _, entry := range publishErrors {
		detail, ok := entry.(map[string]interface{})
		require.True(t, ok)
		require.Equal(t, "a session for this template and datetime already exists", detail["error"])
	}

	require.NoError(t, database.DB.Model(&models.Session{}).
		Where("community_id = ?", community.ID).Count(&count).Error)
	require.EqualValues(t, 6, count)
}

func TestCancelBookingVacatesSpotOnlyOnce(t *testing.T) {
	app := newTestApp()
	_, community := seedManagerWithCommunity(t, "pending-cancel")
	member := seedMember(t, community, "pending-cancel")

	// Inside the conditional window: cancelling yields a pending request,
	// and repeating it must not free the spot a second time.
	session := models.Session{
		CommunityID:                  community.ID,
		Title:                        "Late Night Doubles",
		Datetime:                     time.Now().Add(2 * time.Hour),
		MaxPlayers:                   8,
		BookedCount:                  1,
		Price:                        0,
		Status:                       "active",
		FreeCancellationHours:        24,
		AllowConditionalCancellation: true,
	}
	require.NoError(t, database.DB.Create(&session).Error)

	booking := models.Booking{UserID: member.ID, SessionID: session.ID, PaymentStatus: "paid"}
	require.NoError(t, database.DB.Create(&booking).Error)

	token := signToken(t, member)
	path := fmt.Sprintf("/api/v1/bookings/%s/cancel", booking.ID)

	status, body := doJSON(t, app, http.MethodPost, path, token, nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "pending", body["type"])

	var reloaded models.Session
	require.NoError(t, database.DB.First(&reloaded, "id = ?", session.ID).Error)
	require.Equal(t, 0, reloaded.BookedCount)

	var cancelled models.Booking
	require.NoError(t, database.DB.First(&cancelled, "id = ?", booking.ID).Error)
	require.NotNil(t, cancelled.CancellationStatus)
	require.Equal(t, services.CancellationStatusPendingReplacement, *cancelled.CancellationStatus)
	require.Nil(t, cancelled.CancelledAt)

	status, body = doJSON(t, app, http.MethodPost, path, token, nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "pending", body["type"])

	require.NoError(t, database.DB.First(&reloaded, "id = ?", session.ID).Error)
	require.Equal(t, 0, reloaded.BookedCount)
}

func TestCancelBookingAlreadyCancelledConflicts(t *testing.T) {
	app := newTestApp()
	_, community := seedManagerWithCommunity(t, "double-cancel")
	member := seedMember(t, community, "double-cancel")

	session := models.Session{
		CommunityID:           community.ID,
		Title:                 "Morning Rally",
		Datetime:              time.Now().Add(48 * time.Hour),
		MaxPlayers:            8,
		BookedCount:           1,
		Price:                 0,
		Status:                "active",
		FreeCancellationHours: 24,
	}
	require.NoError(t, database.DB.Create(&session).Error)

	booking := models.Booking{UserID: member.ID, SessionID: session.ID, PaymentStatus: "paid"}
	require.NoError(t, database.DB.Create(&booking).Error)

	token := signToken(t, member)
	path := fmt.Sprintf("/api/v1/bookings/%s/cancel", booking.ID)

	status, body := doJSON(t, app, http.MethodPost, path, token, nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "immediate", body["type"])

	var reloaded models.Session
	require.NoError(t, database.DB.First(&reloaded, "id = ?", session.ID).Error)
	require.Equal(t, 0, reloaded.BookedCount)

	status, _ = doJSON(t, app, http.MethodPost, path, token, nil)
	require.Equal(t, http.StatusConflict, status)

	require.NoError(t, database.DB.First(&reloaded, "id = ?", session.ID).Error)
	require.Equal(t, 0, reloaded.BookedCount)
}

// replacementFixture seeds a paid session with one conditionally cancelled
// booking waiting on a replacement, then books a replacement whose payment
// is still pending at the gateway.
type replacementFixture struct {
	app             *fiber.App
	stub            *telrStub
	session         models.Session
	original        models.Booking
	originalPayment models.Payment
	orderRef        string
}

func seedPendingReplacement(t *testing.T, tag string) *replacementFixture {
	t.Helper()

	app := newTestApp()
	orderRef := "order-" + tag + "-" + uuid.NewString()[:8]
	stub := newTelrStub(t, orderRef)

	_, community := seedManagerWithCommunity(t, tag)
	original := seedMember(t, community, tag+"-original")
	replacement := seedMember(t, community, tag+"-replacement")

	session := models.Session{
		CommunityID:                  community.ID,
		Title:                        "Sunset Showdown",
		Datetime:                     time.Now().Add(2 * time.Hour),
		MaxPlayers:                   4,
		BookedCount:                  1,
		Price:                        150,
		Status:                       "active",
		FreeCancellationHours:        24,
		AllowConditionalCancellation: true,
	}
	require.NoError(t, database.DB.Create(&session).Error)

	originalBooking := models.Booking{UserID: original.ID, SessionID: session.ID, PaymentStatus: "paid"}
	require.NoError(t, database.DB.Create(&originalBooking).Error)

	txnRef := "txn-" + tag
	originalPayment := models.Payment{
		BookingID:     &originalBooking.ID,
		Amount:        150,
		Currency:      "AED",
		Provider:      "telr",
		Status:        "succeeded",
		ProviderTxnID: &txnRef,
	}
	require.NoError(t, database.DB.Create(&originalPayment).Error)

	status, body := doJSON(t, app, http.MethodPost,
		fmt.Sprintf("/api/v1/bookings/%s/cancel", originalBooking.ID),
		signToken(t, original), nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "pending", body["type"])

	status, _ = doJSON(t, app, http.MethodPost, "/api/v1/bookings",
		signToken(t, replacement), fiber.Map{"session_id": session.ID.String()})
	require.Equal(t, http.StatusCreated, status)

	return &replacementFixture{
		app:             app,
		stub:            stub,
		session:         session,
		original:        originalBooking,
		originalPayment: originalPayment,
		orderRef:        orderRef,
	}
}

func TestReplacementBookingDoesNotSettleRefundBeforePayment(t *testing.T) {
	fx := seedPendingReplacement(t, "unpaid")

	// The replacement has only reserved the spot; its payment is pending,
	// so the waiting cancellation must remain unresolved.
	var waiting models.Booking
	require.NoError(t, database.DB.First(&waiting, "id = ?", fx.original.ID).Error)
	require.Nil(t, waiting.CancelledAt)
	require.NotNil(t, waiting.CancellationStatus)
	require.Equal(t, services.CancellationStatusPendingReplacement, *waiting.CancellationStatus)

	var payment models.Payment
	require.NoError(t, database.DB.First(&payment, "id = ?", fx.originalPayment.ID).Error)
	require.Nil(t, payment.RefundStatus)
	require.Empty(t, fx.stub.refunds())

	// The gateway declines: the spot frees up again and the original member
	// still has not been refunded for a replacement that never paid.
	fx.stub.setCheckResult("Declined", "")
	status, _ := doJSON(t, fx.app, http.MethodPost, "/api/v1/payments/webhook", "",
		fiber.Map{"order_ref": fx.orderRef})
	require.Equal(t, http.StatusOK, status)

	var session models.Session
	require.NoError(t, database.DB.First(&session, "id = ?", fx.session.ID).Error)
	require.Equal(t, 0, session.BookedCount)

	require.NoError(t, database.DB.First(&waiting, "id = ?", fx.original.ID).Error)
	require.Nil(t, waiting.CancelledAt)

	require.NoError(t, database.DB.First(&payment, "id = ?", fx.originalPayment.ID).Error)
	require.Nil(t, payment.RefundStatus)
	require.Empty(t, fx.stub.refunds())
}

func TestWebhookPaidResolvesWaitingCancellationAndRefunds(t *testing.T) {
	fx := seedPendingReplacement(t, "paid")

	fx.stub.setCheckResult("Paid", "txn-replacement")
	status, body := doJSON(t, fx.app, http.MethodPost, "/api/v1/payments/webhook", "",
		fiber.Map{"order_ref": fx.orderRef})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "Payment confirmed", body["message"])

	// The confirmed payment is the replacement success: the waiting
	// cancellation flips to final in the same transaction.
	var resolved models.Booking
	require.NoError(t, database.DB.First(&resolved, "id = ?", fx.original.ID).Error)
	require.NotNil(t, resolved.CancelledAt)

	var session models.Session
	require.NoError(t, database.DB.First(&session, "id = ?", fx.session.ID).Error)
	require.Equal(t, 1, session.BookedCount)

	// The contingent refund settles asynchronously.
	require.Eventually(t, func() bool {
		var payment models.Payment
		if err := database.DB.First(&payment, "id = ?", fx.originalPayment.ID).Error; err != nil {
			return false
		}
		return payment.RefundStatus != nil && *payment.RefundStatus == "refunded"
	}, 5*time.Second, 50*time.Millisecond)

	require.Equal(t, []string{*fx.originalPayment.ProviderTxnID}, fx.stub.refunds())
}
