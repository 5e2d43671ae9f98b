package api

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/palaska/tasks-api/internal/config"
	"github.com/palaska/tasks-api/internal/platform/logger"
)

// Documentation routes served outside the pipeline.
const (
	DocPath       = "/api/doc"
	ReferencePath = "/api/reference"
)

const (
	apiTitle       = "Tasks API"
	apiVersion     = "1.0.0"
	apiDescription = "API for task management with both JWT and session-based authentication"

	bearerScheme = "bearerAuth"
	cookieScheme = "cookieAuth"
)

func schemaRef(name string, schema *openapi3.Schema) *openapi3.SchemaRef {
	return openapi3.NewSchemaRef("#/components/schemas/"+name, schema)
}

// NewOpenAPIDocument describes the task, admin and authentication routes as
// an OpenAPI 3.0 document. The result is validated before it is returned.
func NewOpenAPIDocument(ctx context.Context, cfg config.AuthConfig) (*openapi3.T, error) {
	errorSchema := openapi3.NewObjectSchema().
		WithProperty("error", openapi3.NewStringSchema()).
		WithProperty("trace_id", openapi3.NewStringSchema()).
		WithRequired([]string{"error"})
	taskSchema := openapi3.NewObjectSchema().
		WithProperty("id", openapi3.NewUUIDSchema()).
		WithProperty("user_id", openapi3.NewUUIDSchema()).
		WithProperty("name", openapi3.NewStringSchema().WithMinLength(1).WithMaxLength(500)).
		WithProperty("done", openapi3.NewBoolSchema()).
		WithProperty("created_at", openapi3.NewDateTimeSchema()).
		WithProperty("updated_at", openapi3.NewDateTimeSchema()).
		WithRequired([]string{"id", "user_id", "name", "done", "created_at", "updated_at"})
	taskListSchema := openapi3.NewObjectSchema().
		WithPropertyRef("tasks", &openapi3.SchemaRef{Value: openapi3.NewArraySchema().WithItems(taskSchema)}).
		WithProperty("total", openapi3.NewIntegerSchema()).
		WithRequired([]string{"tasks", "total"})
	createTaskSchema := openapi3.NewObjectSchema().
		WithProperty("name", openapi3.NewStringSchema().WithMinLength(1).WithMaxLength(500)).
		WithProperty("done", openapi3.NewBoolSchema()).
		WithRequired([]string{"name"})
	updateTaskSchema := openapi3.NewObjectSchema().
		WithProperty("name", openapi3.NewStringSchema().WithMinLength(1).WithMaxLength(500)).
		WithProperty("done", openapi3.NewBoolSchema())
	userSchema := openapi3.NewObjectSchema().
		WithProperty("id", openapi3.NewUUIDSchema()).
		WithProperty("name", openapi3.NewStringSchema()).
		WithProperty("email", openapi3.NewStringSchema().WithFormat("email")).
		WithProperty("email_verified", openapi3.NewBoolSchema()).
		WithProperty("role", openapi3.NewStringSchema().WithEnum("user", "admin")).
		WithProperty("created_at", openapi3.NewDateTimeSchema()).
		WithProperty("updated_at", openapi3.NewDateTimeSchema())
	sessionSchema := openapi3.NewObjectSchema().
		WithProperty("id", openapi3.NewUUIDSchema()).
		WithProperty("user_id", openapi3.NewUUIDSchema()).
		WithProperty("expires_at", openapi3.NewDateTimeSchema()).
		WithProperty("ip_address", openapi3.NewStringSchema()).
		WithProperty("user_agent", openapi3.NewStringSchema())
	authSchema := openapi3.NewObjectSchema().
		WithProperty("token", openapi3.NewStringSchema()).
		WithPropertyRef("user", schemaRef("User", userSchema))
	identitySchema := openapi3.NewObjectSchema().
		WithPropertyRef("user", schemaRef("User", userSchema)).
		WithPropertyRef("session", schemaRef("Session", sessionSchema)).
		WithNullable()

	doc := &openapi3.T{
		OpenAPI: "3.0.0",
		Info: &openapi3.Info{
			Title:       apiTitle,
			Version:     apiVersion,
			Description: apiDescription,
		},
		Components: &openapi3.Components{
			Schemas: openapi3.Schemas{
				"Error":   schemaRef("Error", errorSchema),
				"Task":    schemaRef("Task", taskSchema),
				"User":    schemaRef("User", userSchema),
				"Session": schemaRef("Session", sessionSchema),
			},
			SecuritySchemes: openapi3.SecuritySchemes{
				bearerScheme: &openapi3.SecuritySchemeRef{Value: openapi3.NewJWTSecurityScheme()},
				cookieScheme: &openapi3.SecuritySchemeRef{Value: &openapi3.SecurityScheme{
					Type: "apiKey",
					In:   "cookie",
					Name: cfg.CookieName,
				}},
			},
		},
		Paths: openapi3.NewPaths(),
	}

	errorResponse := func(description string) *openapi3.Response {
		return openapi3.NewResponse().
			WithDescription(description).
			WithJSONSchemaRef(schemaRef("Error", errorSchema))
	}
	signedIn := &openapi3.SecurityRequirements{
		openapi3.NewSecurityRequirement().Authenticate(bearerScheme),
		openapi3.NewSecurityRequirement().Authenticate(cookieScheme),
	}
	taskID := openapi3.NewPathParameter("id").
		WithDescription("Task identifier").
		WithSchema(openapi3.NewUUIDSchema())

	op := func(tag, id, summary string, security *openapi3.SecurityRequirements) *openapi3.Operation {
		o := openapi3.NewOperation()
		o.Tags = []string{tag}
		o.OperationID = id
		o.Summary = summary
		o.Security = security
		return o
	}

	listTasks := op("Tasks", "listTasks", "List the caller's tasks", signedIn)
	listTasks.AddResponse(http.StatusOK, openapi3.NewResponse().
		WithDescription("The caller's tasks").
		WithJSONSchema(taskListSchema))
	listTasks.AddResponse(http.StatusUnauthorized, errorResponse("Not signed in"))
	doc.AddOperation("/api/tasks", http.MethodGet, listTasks)

	createTask := op("Tasks", "createTask", "Create a task", signedIn)
	createTask.RequestBody = &openapi3.RequestBodyRef{Value: openapi3.NewRequestBody().
		WithRequired(true).
		WithJSONSchema(createTaskSchema)}
	createTask.AddResponse(http.StatusCreated, openapi3.NewResponse().
		WithDescription("The created task").
		WithJSONSchemaRef(schemaRef("Task", taskSchema)))
	createTask.AddResponse(http.StatusBadRequest, errorResponse("Invalid task"))
	createTask.AddResponse(http.StatusUnauthorized, errorResponse("Not signed in"))
	doc.AddOperation("/api/tasks", http.MethodPost, createTask)

	getTask := op("Tasks", "getTask", "Get one of the caller's tasks", signedIn)
	getTask.AddParameter(taskID)
	getTask.AddResponse(http.StatusOK, openapi3.NewResponse().
		WithDescription("The task").
		WithJSONSchemaRef(schemaRef("Task", taskSchema)))
	getTask.AddResponse(http.StatusNotFound, errorResponse("Task not found"))
	getTask.AddResponse(http.StatusUnauthorized, errorResponse("Not signed in"))
	doc.AddOperation("/api/tasks/{id}", http.MethodGet, getTask)

	updateTask := op("Tasks", "updateTask", "Update a task's name or completion", signedIn)
	updateTask.AddParameter(taskID)
	updateTask.RequestBody = &openapi3.RequestBodyRef{Value: openapi3.NewRequestBody().
		WithRequired(true).
		WithJSONSchema(updateTaskSchema)}
	updateTask.AddResponse(http.StatusOK, openapi3.NewResponse().
		WithDescription("The updated task").
		WithJSONSchemaRef(schemaRef("Task", taskSchema)))
	updateTask.AddResponse(http.StatusBadRequest, errorResponse("Invalid update"))
	updateTask.AddResponse(http.StatusNotFound, errorResponse("Task not found"))
	updateTask.AddResponse(http.StatusUnauthorized, errorResponse("Not signed in"))
	doc.AddOperation("/api/tasks/{id}", http.MethodPatch, updateTask)

	deleteTask := op("Tasks", "deleteTask", "Delete a task", signedIn)
	deleteTask.AddParameter(taskID)
	deleteTask.AddResponse(http.StatusNoContent, openapi3.NewResponse().WithDescription("Task deleted"))
	deleteTask.AddResponse(http.StatusNotFound, errorResponse("Task not found"))
	deleteTask.AddResponse(http.StatusUnauthorized, errorResponse("Not signed in"))
	doc.AddOperation("/api/tasks/{id}", http.MethodDelete, deleteTask)

	listAll := op("Admin", "listAllTasks", "List every user's tasks", signedIn)
	listAll.AddResponse(http.StatusOK, openapi3.NewResponse().
		WithDescription("All tasks").
		WithJSONSchema(taskListSchema))
	listAll.AddResponse(http.StatusUnauthorized, errorResponse("Not an administrator"))
	doc.AddOperation("/api/admin/tasks", http.MethodGet, listAll)

	base := strings.TrimRight(cfg.BasePath, "/")

	signUp := op("Auth", "signUpEmail", "Register with email and password", nil)
	signUp.RequestBody = &openapi3.RequestBodyRef{Value: openapi3.NewRequestBody().
		WithRequired(true).
		WithJSONSchema(openapi3.NewObjectSchema().
			WithProperty("name", openapi3.NewStringSchema().WithMaxLength(200)).
			WithProperty("email", openapi3.NewStringSchema().WithFormat("email")).
			WithProperty("password", openapi3.NewStringSchema().WithMinLength(8).WithMaxLength(72)).
			WithRequired([]string{"name", "email", "password"}))}
	signUp.AddResponse(http.StatusOK, openapi3.NewResponse().
		WithDescription("Signed up; the session cookie is set").
		WithJSONSchema(authSchema))
	signUp.AddResponse(http.StatusBadRequest, errorResponse("Invalid sign-up"))
	signUp.AddResponse(http.StatusConflict, errorResponse("User already exists"))
	doc.AddOperation(base+"/sign-up/email", http.MethodPost, signUp)

	signIn := op("Auth", "signInEmail", "Sign in with email and password", nil)
	signIn.RequestBody = &openapi3.RequestBodyRef{Value: openapi3.NewRequestBody().
		WithRequired(true).
		WithJSONSchema(openapi3.NewObjectSchema().
			WithProperty("email", openapi3.NewStringSchema().WithFormat("email")).
			WithProperty("password", openapi3.NewStringSchema()).
			WithRequired([]string{"email", "password"}))}
	signIn.AddResponse(http.StatusOK, openapi3.NewResponse().
		WithDescription("Signed in; the session cookie is set").
		WithJSONSchema(authSchema))
	signIn.AddResponse(http.StatusUnauthorized, errorResponse("Invalid email or password"))
	doc.AddOperation(base+"/sign-in/email", http.MethodPost, signIn)

	signOut := op("Auth", "signOut", "End the current session", signedIn)
	signOut.AddResponse(http.StatusOK, openapi3.NewResponse().
		WithDescription("Signed out").
		WithJSONSchema(openapi3.NewObjectSchema().WithProperty("success", openapi3.NewBoolSchema())))
	signOut.AddResponse(http.StatusUnauthorized, errorResponse("Not signed in"))
	doc.AddOperation(base+"/sign-out", http.MethodPost, signOut)

	getSession := op("Auth", "getSession", "Describe the current session", nil)
	getSession.AddResponse(http.StatusOK, openapi3.NewResponse().
		WithDescription("The signed-in user and session, or null").
		WithJSONSchema(identitySchema))
	doc.AddOperation(base+"/get-session", http.MethodGet, getSession)

	listUsers := op("Admin", "listUsers", "List registered users", signedIn)
	listUsers.AddResponse(http.StatusOK, openapi3.NewResponse().
		WithDescription("All users").
		WithJSONSchema(openapi3.NewObjectSchema().
			WithPropertyRef("users", &openapi3.SchemaRef{Value: openapi3.NewArraySchema().WithItems(userSchema)}).
			WithProperty("total", openapi3.NewIntegerSchema())))
	listUsers.AddResponse(http.StatusUnauthorized, errorResponse("Not signed in"))
	listUsers.AddResponse(http.StatusForbidden, errorResponse("Not an administrator"))
	doc.AddOperation(base+"/admin/list-users", http.MethodGet, listUsers)

	setRole := op("Admin", "setRole", "Change a user's role", signedIn)
	setRole.RequestBody = &openapi3.RequestBodyRef{Value: openapi3.NewRequestBody().
		WithRequired(true).
		WithJSONSchema(openapi3.NewObjectSchema().
			WithProperty("userId", openapi3.NewUUIDSchema()).
			WithProperty("role", openapi3.NewStringSchema().WithEnum("user", "admin")).
			WithRequired([]string{"userId", "role"}))}
	setRole.AddResponse(http.StatusOK, openapi3.NewResponse().
		WithDescription("The updated user").
		WithJSONSchema(openapi3.NewObjectSchema().WithPropertyRef("user", schemaRef("User", userSchema))))
	setRole.AddResponse(http.StatusUnauthorized, errorResponse("Not signed in"))
	setRole.AddResponse(http.StatusForbidden, errorResponse("Not an administrator"))
	doc.AddOperation(base+"/admin/set-role", http.MethodPost, setRole)

	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}
	return doc, nil
}

// OpenAPIHandler serves doc as JSON. The document is encoded once.
func OpenAPIHandler(doc *openapi3.T) (http.HandlerFunc, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode openapi document: %w", err)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(body); err != nil {
			logger.FromContext(r.Context()).Error("failed to write openapi document", "error", err)
		}
	}, nil
}

var referencePage = template.Must(template.New("reference").Parse(`<!doctype html>
<html>
  <head>
    <title>{{.Title}}</title>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
  </head>
  <body>
    <script id="api-reference" data-url="{{.DocURL}}" data-configuration="{{.Configuration}}"></script>
    <script src="https://cdn.jsdelivr.net/npm/@scalar/api-reference"></script>
  </body>
</html>
`))

// ReferenceHandler serves an interactive API reference page that loads the
// document from docURL.
func ReferenceHandler(docURL string) http.HandlerFunc {
	configuration := `{"theme":"kepler","layout":"classic","defaultHttpClient":{"targetKey":"js","clientKey":"fetch"}}`
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		err := referencePage.Execute(w, struct {
			Title         string
			DocURL        string
			Configuration string
		}{apiTitle + " Reference", docURL, configuration})
		if err != nil {
			logger.FromContext(r.Context()).Error("failed to render api reference", "error", err)
		}
	}
}
