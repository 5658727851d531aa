package holiday_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/frahmantamala/leave-management/internal/core/clock"
	"github.com/frahmantamala/leave-management/internal/core/database/dbtest"
	"github.com/frahmantamala/leave-management/internal/holiday"
	holidayPostgres "github.com/frahmantamala/leave-management/internal/holiday/postgres"
	"github.com/frahmantamala/leave-management/internal/transport"
)

var _ = Describe("Holiday Handler Integration", func() {
	var (
		db     *gorm.DB
		router chi.Router
	)

	BeforeEach(func() {
		var err error
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		db, err = dbtest.Open()
		Expect(err).NotTo(HaveOccurred())

		service := holiday.NewService(holidayPostgres.NewHolidayRepository(db), slogger)
		clk := clock.NewFixedClock(time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC))
		handler := holiday.NewHandler(&transport.BaseHandler{Logger: slogger}, service, clk)

		router = chi.NewRouter()
		router.Get("/holidays", handler.GetHolidays)
		router.Post("/holidays", handler.CreateHoliday)
		router.Delete("/holidays/{id}", handler.DeleteHoliday)
	})

	AfterEach(func() {
		Expect(dbtest.Close(db)).To(Succeed())
	})

	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	It("lists the current year by default", func() {
		Expect(do(http.MethodPost, "/holidays", `{"name":"Madaraka Day","date":"2024-06-01"}`).Code).To(Equal(http.StatusCreated))
		Expect(do(http.MethodPost, "/holidays", `{"name":"Old","date":"2023-06-01"}`).Code).To(Equal(http.StatusCreated))

		w := do(http.MethodGet, "/holidays", "")
		Expect(w.Code).To(Equal(http.StatusOK))

		var response holiday.HolidaysResponse
		Expect(json.NewDecoder(w.Body).Decode(&response)).To(Succeed())
		Expect(response.Holidays).To(HaveLen(1))
		Expect(response.Holidays[0].Name).To(Equal("Madaraka Day"))
	})

	It("rejects a malformed range", func() {
		w := do(http.MethodGet, "/holidays?from=june", "")
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("returns 404 when deleting an unknown holiday", func() {
		w := do(http.MethodDelete, "/holidays/42", "")
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})
})
