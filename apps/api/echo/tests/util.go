package tests

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"log"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	. "github.com/tasmiapp/tasmi/apps/api/echo"
	"github.com/tasmiapp/tasmi/core"
	"github.com/tasmiapp/tasmi/core/audit"
	"github.com/tasmiapp/tasmi/core/examiner"
	"github.com/tasmiapp/tasmi/core/setoran"
	"github.com/tasmiapp/tasmi/core/student"
	"github.com/tasmiapp/tasmi/core/subscription"
	"github.com/tasmiapp/tasmi/core/user"
	emailsvc "github.com/tasmiapp/tasmi/services/email"
	logsvc "github.com/tasmiapp/tasmi/services/logger"
	"github.com/tasmiapp/tasmi/storage/database/inmem"
)

var (
	usrRepo      *inmem.UserRepository
	studentRepo  *inmem.StudentRepository
	examinerRepo *inmem.ExaminerRepository
	setoranRepo  *inmem.SetoranRepository
	subRepo      *inmem.SubscriptionRepository
	auditRepo    *inmem.AuditRepository

	usrSvc  user.ServiceInterface
	subSvc  *subscription.Service
	mailSvc core.EmailService

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
)

func setup(t *testing.T) Server {
	conf := core.NewConfig()
	conf.Debug = false
	conf.TestMode = true

	logger := logsvc.NewRollbarLogger(log.New(ioutil.Discard, "", 0), conf)
	logger.Enable(false)

	// set up repos
	usrRepo = inmem.NewUserRepository()
	studentRepo = inmem.NewStudentRepository()
	examinerRepo = inmem.NewExaminerRepository()
	setoranRepo = inmem.NewSetoranRepository()
	subRepo = inmem.NewSubscriptionRepository()
	auditRepo = inmem.NewAuditRepository()

	// set up services
	mailSvc = emailsvc.NewConsoleServiceMock(conf)
	usrSvc = user.NewService(nil, usrRepo, mailSvc, conf)
	auditSvc := audit.NewService(auditRepo, logger)
	subSvc = subscription.NewService(subRepo, studentRepo, examinerRepo, usrSvc, auditSvc, mailSvc, logger, conf)
	studentSvc := student.NewService(studentRepo, subSvc)
	examinerSvc := examiner.NewService(examinerRepo, subSvc)
	setoranSvc := setoran.NewService(setoranRepo, studentSvc, examinerSvc)

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	subscription.InitValidators(validate, translator)
	setoran.InitValidators(validate, translator)

	// set up server
	return NewServer(
		ServerDeps{
			Conf:            conf,
			Logger:          logger,
			UserSvc:         usrSvc,
			StudentSvc:      studentSvc,
			ExaminerSvc:     examinerSvc,
			SetoranSvc:      setoranSvc,
			SubscriptionSvc: subSvc,
			AuditSvc:        auditSvc,
			Validate:        validate,
			Translator:      translator,
			DisableReqLogs:  true,
		},
	)
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

// nolint
func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
