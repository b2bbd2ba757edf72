// docs.go — документация API.
// GET /openapi.json — OpenAPI 3.0 документ (строится kin-openapi и валидируется при старте)
// GET / — страница Swagger UI, читающая /openapi.json
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/bigkaa/identity-gateway/internal/config"
	"github.com/bigkaa/identity-gateway/internal/service"
)

// DocsHandler — обработчик документации API.
type DocsHandler struct {
	document []byte
}

// NewDocsHandler строит и валидирует OpenAPI-документ.
func NewDocsHandler(ctx context.Context) (*DocsHandler, error) {
	doc := BuildOpenAPI()
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("валидация OpenAPI-документа: %w", err)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("сериализация OpenAPI-документа: %w", err)
	}

	return &DocsHandler{document: data}, nil
}

// GetOpenAPI — OpenAPI-документ в JSON.
func (h *DocsHandler) GetOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.document)
}

// GetDocs — страница Swagger UI.
func (h *DocsHandler) GetDocs(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(swaggerUIPage))
}

// BuildOpenAPI описывает HTTP API Identity Gateway.
func BuildOpenAPI() *openapi3.T {
	userSchema := openapi3.NewObjectSchema().
		WithProperty("id", openapi3.NewStringSchema()).
		WithProperty("status", openapi3.NewStringSchema()).
		WithProperty("created", openapi3.NewDateTimeSchema().WithNullable()).
		WithProperty("activated", openapi3.NewDateTimeSchema().WithNullable()).
		WithProperty("lastLogin", openapi3.NewDateTimeSchema().WithNullable()).
		WithProperty("profile", openapi3.NewObjectSchema().
			WithProperty("firstName", openapi3.NewStringSchema()).
			WithProperty("lastName", openapi3.NewStringSchema()).
			WithProperty("email", openapi3.NewStringSchema()).
			WithProperty("login", openapi3.NewStringSchema()))

	deviceSchema := openapi3.NewObjectSchema().
		WithProperty("id", openapi3.NewStringSchema()).
		WithProperty("factorType", openapi3.NewStringSchema()).
		WithProperty("provider", openapi3.NewStringSchema()).
		WithProperty("status", openapi3.NewStringSchema()).
		WithProperty("created", openapi3.NewDateTimeSchema().WithNullable()).
		WithProperty("lastUpdated", openapi3.NewDateTimeSchema().WithNullable()).
		WithProperty("profile", openapi3.NewObjectSchema().WithAnyAdditionalProperties())

	errorSchema := openapi3.NewObjectSchema().
		WithProperty("success", openapi3.NewBoolSchema()).
		WithProperty("error", openapi3.NewStringSchema())

	usersResponse := openapi3.NewObjectSchema().
		WithProperty("success", openapi3.NewBoolSchema()).
		WithProperty("data", openapi3.NewArraySchema().WithItems(userSchema)).
		WithProperty("pagination", openapi3.NewObjectSchema().
			WithProperty("hasNext", openapi3.NewBoolSchema()).
			WithProperty("nextCursor", openapi3.NewStringSchema().WithNullable()).
			WithProperty("totalCount", openapi3.NewIntegerSchema()))

	devicesResponse := openapi3.NewObjectSchema().
		WithProperty("success", openapi3.NewBoolSchema()).
		WithProperty("data", openapi3.NewArraySchema().WithItems(deviceSchema)).
		WithProperty("count", openapi3.NewIntegerSchema())

	userWithDevicesResponse := openapi3.NewObjectSchema().
		WithProperty("success", openapi3.NewBoolSchema()).
		WithProperty("data", openapi3.NewObjectSchema().
			WithProperty("user", userSchema).
			WithProperty("devices", openapi3.NewArraySchema().WithItems(deviceSchema)).
			WithProperty("deviceCount", openapi3.NewIntegerSchema()))

	healthResponse := openapi3.NewObjectSchema().
		WithProperty("status", openapi3.NewStringSchema().WithEnum(service.HealthOK, service.HealthDegraded)).
		WithProperty("timestamp", openapi3.NewDateTimeSchema()).
		WithProperty("service", openapi3.NewStringSchema()).
		WithProperty("version", openapi3.NewStringSchema()).
		WithProperty("checks", openapi3.NewObjectSchema().
			WithProperty("server", openapi3.NewStringSchema()).
			WithProperty("okta", openapi3.NewStringSchema().WithEnum(service.HealthOK, service.HealthFailed))).
		WithProperty("message", openapi3.NewStringSchema()).
		WithProperty("error", openapi3.NewObjectSchema().
			WithProperty("type", openapi3.NewStringSchema().
				WithEnum(service.ErrorTypeAuthentication, service.ErrorTypeConnection)).
			WithProperty("details", openapi3.NewStringSchema()))

	userIDParam := &openapi3.ParameterRef{Value: openapi3.NewPathParameter("userId").
		WithDescription("Идентификатор пользователя Okta").
		WithSchema(openapi3.NewStringSchema())}

	listUsers := &openapi3.Operation{
		OperationID: "listUsers",
		Tags:        []string{"users"},
		Summary:     "Страница пользователей с курсорной пагинацией",
		Parameters: openapi3.Parameters{
			{Value: openapi3.NewQueryParameter("limit").
				WithDescription(fmt.Sprintf("Размер страницы (по умолчанию %d; Okta отдаёт не больше %d)", service.DefaultLimit, service.MaxLimit)).
				WithSchema(openapi3.NewIntegerSchema().WithMin(1))},
			{Value: openapi3.NewQueryParameter("after").
				WithDescription("Курсор следующей страницы (pagination.nextCursor)").
				WithSchema(openapi3.NewStringSchema())},
			{Value: openapi3.NewQueryParameter("filter").
				WithDescription("Выражение фильтра Okta, передаётся без изменений").
				WithSchema(openapi3.NewStringSchema())},
		},
		Responses: openapi3.NewResponses(
			openapi3.WithStatus(http.StatusOK, jsonResponse("Страница пользователей", usersResponse)),
			openapi3.WithStatus(http.StatusInternalServerError, jsonResponse("Ошибка Okta", errorSchema)),
		),
	}

	getUserDevices := &openapi3.Operation{
		OperationID: "getUserDevices",
		Tags:        []string{"users"},
		Summary:     "Зарегистрированные факторы пользователя",
		Parameters:  openapi3.Parameters{userIDParam},
		Responses: openapi3.NewResponses(
			openapi3.WithStatus(http.StatusOK, jsonResponse("Факторы пользователя", devicesResponse)),
			openapi3.WithStatus(http.StatusNotFound, jsonResponse("Пользователь не найден", errorSchema)),
			openapi3.WithStatus(http.StatusInternalServerError, jsonResponse("Ошибка Okta", errorSchema)),
		),
	}

	getUserWithDevices := &openapi3.Operation{
		OperationID: "getUserWithDevices",
		Tags:        []string{"users"},
		Summary:     "Пользователь вместе с факторами",
		Parameters:  openapi3.Parameters{userIDParam},
		Responses: openapi3.NewResponses(
			openapi3.WithStatus(http.StatusOK, jsonResponse("Пользователь с факторами", userWithDevicesResponse)),
			openapi3.WithStatus(http.StatusNotFound, jsonResponse("Пользователь не найден", errorSchema)),
			openapi3.WithStatus(http.StatusInternalServerError, jsonResponse("Ошибка Okta", errorSchema)),
		),
	}

	health := &openapi3.Operation{
		OperationID: "health",
		Tags:        []string{"health"},
		Summary:     "Проверка доступности Okta",
		Responses: openapi3.NewResponses(
			openapi3.WithStatus(http.StatusOK, jsonResponse("Okta доступен", healthResponse)),
			openapi3.WithStatus(http.StatusServiceUnavailable, jsonResponse("Okta недоступен", healthResponse)),
		),
	}

	return &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       config.ServiceName,
			Description: "Read-only REST API над каталогом пользователей и факторов Okta",
			Version:     config.Version,
		},
		Paths: openapi3.NewPaths(
			openapi3.WithPath("/api/users", &openapi3.PathItem{Get: listUsers}),
			openapi3.WithPath("/api/users/{userId}", &openapi3.PathItem{Get: getUserWithDevices}),
			openapi3.WithPath("/api/users/{userId}/devices", &openapi3.PathItem{Get: getUserDevices}),
			openapi3.WithPath("/health", &openapi3.PathItem{Get: health}),
		),
	}
}

// jsonResponse создаёт описание ответа с JSON-телом.
func jsonResponse(description string, schema *openapi3.Schema) *openapi3.ResponseRef {
	return &openapi3.ResponseRef{
		Value: openapi3.NewResponse().
			WithDescription(description).
			WithJSONSchema(schema),
	}
}

// swaggerUIPage — Swagger UI из swagger-ui-dist.
const swaggerUIPage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>Okta Users &amp; Devices Service</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
  <script>
    window.onload = function () {
      window.ui = SwaggerUIBundle({ url: "/openapi.json", dom_id: "#swagger-ui" });
    };
  </script>
</body>
</html>
`
