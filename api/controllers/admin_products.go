package controllers

import (
	"net/http"

	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/api/responses"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/api/validators"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/internal/catalog"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/enums"
	pkgerrors "github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/errors"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/logger"
)

type adminCreateProductRequest struct {
	Name        string   `json:"name" validate:"required,min=2,max=128"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=2048"`
	Category    string   `json:"category" validate:"required"`
	Price       int64    `json:"price" validate:"required,min=1"`
	Stock       int      `json:"stock" validate:"min=0"`
	ImageURL    *string  `json:"image_url,omitempty" validate:"omitempty,url"`
	Tags        []string `json:"tags,omitempty" validate:"omitempty,max=16,dive,min=1,max=48"`
	IsActive    *bool    `json:"is_active,omitempty"`
}

type adminUpdateProductRequest struct {
	Name        *string   `json:"name,omitempty" validate:"omitempty,min=2,max=128"`
	Description *string   `json:"description,omitempty" validate:"omitempty,max=2048"`
	Category    *string   `json:"category,omitempty"`
	Price       *int64    `json:"price,omitempty" validate:"omitempty,min=1"`
	Stock       *int      `json:"stock,omitempty" validate:"omitempty,min=0"`
	ImageURL    *string   `json:"image_url,omitempty" validate:"omitempty,url"`
	Tags        *[]string `json:"tags,omitempty" validate:"omitempty,max=16,dive,min=1,max=48"`
	IsActive    *bool     `json:"is_active,omitempty"`
}

type adminReplenishRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

// AdminProductList pages the catalog including hidden products.
func AdminProductList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		input, err := buildListInput(r, true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListProducts(r.Context(), *input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// AdminProductCreate adds a product to the catalog.
func AdminProductCreate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var body adminCreateProductRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		category, err := enums.ParseProductCategory(body.Category)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category"))
			return
		}

		isActive := true
		if body.IsActive != nil {
			isActive = *body.IsActive
		}

		product, err := svc.CreateProduct(r.Context(), catalog.CreateProductInput{
			Name:        body.Name,
			Description: body.Description,
			Category:    category,
			Price:       body.Price,
			Stock:       body.Stock,
			ImageURL:    body.ImageURL,
			Tags:        body.Tags,
			IsActive:    isActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

// AdminProductUpdate patches product fields, including visibility.
func AdminProductUpdate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		productID, err := parseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body adminUpdateProductRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := catalog.UpdateProductInput{
			Name:        body.Name,
			Description: body.Description,
			Price:       body.Price,
			Stock:       body.Stock,
			ImageURL:    body.ImageURL,
			Tags:        body.Tags,
			IsActive:    body.IsActive,
		}
		if body.Category != nil {
			category, err := enums.ParseProductCategory(*body.Category)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category"))
				return
			}
			input.Category = &category
		}

		product, err := svc.UpdateProduct(r.Context(), productID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

// AdminProductDelete hides a product from the storefront.
func AdminProductDelete(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		productID, err := parseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteProduct(r.Context(), productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// AdminProductReplenish tops up stock for one product.
func AdminProductReplenish(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		productID, err := parseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body adminReplenishRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.ReplenishStock(r.Context(), productID, body.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}
