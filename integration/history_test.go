package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/akeren/form-history-api/config"
	"github.com/akeren/form-history-api/config/router"
	"github.com/akeren/form-history-api/domain"
	"github.com/akeren/form-history-api/internal/log"
	"github.com/akeren/form-history-api/internal/models"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type FormHistoryAPITestSuite struct {
	suite.Suite
	db        *gorm.DB
	server    *httptest.Server
	baseURL   string
	logger    *log.Logger
	appConfig *config.ApplicationConfig
}

func (suite *FormHistoryAPITestSuite) SetupSuite() {
	var err error
	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	suite.Require().NoError(err)

	// Every connection to :memory: is a separate database.
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)

	suite.Require().NoError(suite.db.AutoMigrate(models.ModelRegistry...))

	suite.logger = log.NewLoggerWithJSONOutput()

	suite.appConfig = &config.ApplicationConfig{
		DB:     suite.db,
		Logger: suite.logger,
		Config: &config.AppConfig{
			RateLimitRequests:       1000,
			RateLimitWindow:         time.Minute,
			RequestTimeout:          30 * time.Second,
			SubmitMaxDelay:          0,
			SubmitRequestsPerMinute: 1000,
		},
	}

	suite.appConfig.RouterService = router.CreateRouterService(suite.logger, nil, &router.RouterConfig{
		RateLimitRequests: suite.appConfig.Config.RateLimitRequests,
		RateLimitWindow:   suite.appConfig.Config.RateLimitWindow,
		RequestTimeout:    suite.appConfig.Config.RequestTimeout,
	})

	domain.SetupCoreDomain(suite.appConfig)

	suite.server = httptest.NewServer(suite.appConfig.RouterService.GetEngine())
	suite.baseURL = suite.server.URL
}

func (suite *FormHistoryAPITestSuite) TearDownSuite() {
	if suite.server != nil {
		suite.server.Close()
	}
	if suite.db != nil {
		sqlDB, _ := suite.db.DB()
		sqlDB.Close()
	}
}

func (suite *FormHistoryAPITestSuite) SetupTest() {
	suite.db.Exec("DELETE FROM " + models.FormEntryTableName)
}

func (suite *FormHistoryAPITestSuite) submit(date, firstName, lastName string) (*http.Response, []byte) {
	body, _ := json.Marshal(map[string]string{
		"date":       date,
		"first_name": firstName,
		"last_name":  lastName,
	})

	resp, err := http.Post(suite.baseURL+"/api/submit", "application/json", bytes.NewBuffer(body))
	suite.Require().NoError(err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	suite.Require().NoError(err)
	return resp, raw
}

func (suite *FormHistoryAPITestSuite) get(path string) (*http.Response, []byte) {
	resp, err := http.Get(suite.baseURL + path)
	suite.Require().NoError(err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	suite.Require().NoError(err)
	return resp, raw
}

func (suite *FormHistoryAPITestSuite) TestHealthCheck() {
	resp, body := suite.get("/api/v1/health")

	suite.Equal(http.StatusOK, resp.StatusCode)
	suite.JSONEq(`{"message":"pong"}`, string(body))
}

func (suite *FormHistoryAPITestSuite) TestHealthStatus() {
	resp, body := suite.get("/api/v1/health/status")

	suite.Equal(http.StatusOK, resp.StatusCode)

	var status map[string]float64
	suite.Require().NoError(json.Unmarshal(body, &status))
	suite.Equal(float64(1), status["database"])
	suite.Equal(float64(0), status["cache"])
	suite.Contains(status, "uptime")
}

func (suite *FormHistoryAPITestSuite) TestHistoryPriorCounts() {
	for _, date := range []string{"2025-01-10", "2025-01-15", "2025-01-20"} {
		resp, body := suite.submit(date, "Ivan", "Ivanov")
		suite.Require().Equal(http.StatusOK, resp.StatusCode, string(body))
		suite.JSONEq(`{"success":true}`, string(body))
	}

	resp, body := suite.get("/api/history?date=2025-01-20")
	suite.Require().Equal(http.StatusOK, resp.StatusCode)

	suite.JSONEq(`{
		"items": [
			{"date":"2025-01-20","first_name":"Ivan","last_name":"Ivanov","count":2},
			{"date":"2025-01-15","first_name":"Ivan","last_name":"Ivanov","count":1},
			{"date":"2025-01-10","first_name":"Ivan","last_name":"Ivanov","count":0}
		],
		"total": 3
	}`, string(body))
}

func (suite *FormHistoryAPITestSuite) TestHistoryPageIsCappedAtTen() {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		resp, _ := suite.submit(start.AddDate(0, 0, i).Format("2006-01-02"), "Anna", "Petrova")
		suite.Require().Equal(http.StatusOK, resp.StatusCode)
	}

	resp, body := suite.get("/api/history?date=2025-12-31&first_name=Anna")
	suite.Require().Equal(http.StatusOK, resp.StatusCode)

	var history struct {
		Items []map[string]any `json:"items"`
		Total int              `json:"total"`
	}
	suite.Require().NoError(json.Unmarshal(body, &history))
	suite.Len(history.Items, 10)
	suite.Equal(12, history.Total)
	suite.Equal("2025-03-12", history.Items[0]["date"])
	suite.Equal(float64(11), history.Items[0]["count"])
}

func (suite *FormHistoryAPITestSuite) TestRepeatedHistoryReadIsStable() {
	for i := 0; i < 4; i++ {
		for _, name := range [][2]string{{"Ivan", "Ivanov"}, {"Anna", "Petrova"}, {"Boris", "Sidorov"}} {
			resp, _ := suite.submit("2025-04-01", name[0], name[1])
			suite.Require().Equal(http.StatusOK, resp.StatusCode)
		}
	}

	resp, first := suite.get("/api/history?date=2025-04-01")
	suite.Require().Equal(http.StatusOK, resp.StatusCode)
	resp, second := suite.get("/api/history?date=2025-04-01")
	suite.Require().Equal(http.StatusOK, resp.StatusCode)

	suite.Equal(string(first), string(second))
}

func (suite *FormHistoryAPITestSuite) TestSubmitRejectsWhitespace() {
	resp, body := suite.submit("2025-01-10", "Ivan Ivanov", "Ivanov")

	suite.Equal(http.StatusBadRequest, resp.StatusCode)
	suite.JSONEq(`{"success":false,"error":{"first_name":["No whitespace in first_name is allowed"]}}`, string(body))

	var count int64
	suite.Require().NoError(suite.db.Model(&models.FormEntry{}).Count(&count).Error)
	suite.Equal(int64(0), count)
}

func (suite *FormHistoryAPITestSuite) TestHistoryRequiresDate() {
	resp, body := suite.get("/api/history?first_name=Ivan")

	suite.Equal(http.StatusUnprocessableEntity, resp.StatusCode)

	var envelope struct {
		Success bool                `json:"success"`
		Error   map[string][]string `json:"error"`
	}
	suite.Require().NoError(json.Unmarshal(body, &envelope))
	suite.False(envelope.Success)
	suite.Contains(envelope.Error, "date")
}

func (suite *FormHistoryAPITestSuite) TestUniqueNames() {
	suite.submit("2025-01-10", "Ivan", "Ivanov")
	suite.submit("2025-01-11", "Anna", "Ivanov")
	suite.submit("2025-01-12", "Ivan", "Petrova")

	resp, body := suite.get("/api/unique-names")

	suite.Equal(http.StatusOK, resp.StatusCode)
	suite.JSONEq(`{"first_names":["Anna","Ivan"],"last_names":["Ivanov","Petrova"]}`, string(body))
}

func (suite *FormHistoryAPITestSuite) TestUnknownRoute() {
	resp, body := suite.get("/api/nope")

	suite.Equal(http.StatusNotFound, resp.StatusCode)
	suite.Contains(string(body), `"not_found"`)
}

func (suite *FormHistoryAPITestSuite) TestMetricsExposeSubmissions() {
	suite.submit("2025-01-10", "Ivan", "Ivanov")
	suite.submit("2025-01-10", "Ivan Ivanov", "Ivanov")

	resp, body := suite.get("/metrics")

	suite.Equal(http.StatusOK, resp.StatusCode)
	suite.Contains(string(body), `form_submissions_total{outcome="accepted"}`)
	suite.Contains(string(body), `form_submissions_total{outcome="rejected"}`)
}

func TestFormHistoryAPITestSuite(t *testing.T) {
	suite.Run(t, new(FormHistoryAPITestSuite))
}
