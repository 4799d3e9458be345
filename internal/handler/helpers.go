package handler

import (
	"errors"
	"net/http"
	"reflect"

	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/apierror"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/middleware"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, &apierror.APIError{Detail: "JSON invalido: " + err.Error(), Code: apierror.CodeInvalidInput})
		return false
	}
	return validateStruct(c, req)
}

// bindQuery is bindAndValidate for query-string filters.
func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		c.JSON(http.StatusBadRequest, &apierror.APIError{Detail: "Parametros invalidos: " + err.Error(), Code: apierror.CodeInvalidInput})
		return false
	}
	return validateStruct(c, req)
}

func validateStruct(c *gin.Context, req interface{}) bool {
	err := validate.Struct(req)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, &apierror.APIError{Detail: err.Error(), Code: apierror.CodeInvalidInput})
		return false
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	c.JSON(http.StatusBadRequest, apierror.NewValidation(fields))
	return false
}

// respondError writes domain errors with their status and code. Anything else
// is pushed to the context for middleware.ErrorHandler, which logs it and
// answers a generic 500.
func respondError(c *gin.Context, err error) {
	e, ok := apierror.As(err)
	if !ok {
		_ = c.Error(err)
		return
	}
	c.JSON(apierror.Status(err), &apierror.APIError{Detail: e.Detail, Code: e.Code})
}

func parseUUID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, &apierror.APIError{Detail: "ID invalido", Code: apierror.CodeInvalidInput})
		return uuid.Nil, false
	}
	return id, true
}

// imagenDelForm reads the "imagen" multipart field. The caller must close the
// returned file.
func imagenDelForm(c *gin.Context) (service.Archivo, func(), bool) {
	fh, err := c.FormFile("imagen")
	if err != nil {
		c.JSON(http.StatusBadRequest, &apierror.APIError{Detail: "Falta el archivo 'imagen'", Code: apierror.CodeInvalidInput})
		return service.Archivo{}, nil, false
	}
	f, err := fh.Open()
	if err != nil {
		respondError(c, err)
		return service.Archivo{}, nil, false
	}
	return service.Archivo{
		Nombre:      fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Contenido:   f,
	}, func() { _ = f.Close() }, true
}

// tenant and usuario are shorthands for the values set by the middleware chain.
func tenant(c *gin.Context) string { return middleware.TenantSlug(c) }

func usuario(c *gin.Context) uuid.UUID { return middleware.UserID(c) }
