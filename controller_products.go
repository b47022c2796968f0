package store

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductsController serves the catalog: public listing and lookup, admin
// mutation.
type ProductsController struct {
	Repo   RepositoryManager
	Authn  *RouteAuthenticator
	Logger Logger
}

func NewProductsController(repo RepositoryManager, authn *RouteAuthenticator) *ProductsController {
	return &ProductsController{
		Repo:   repo,
		Authn:  authn,
		Logger: defLogger{},
	}
}

func (p *ProductsController) WithLogger(l Logger) *ProductsController {
	if l != nil {
		p.Logger = l
	}
	return p
}

// RegisterProductRoutes mounts the catalog surface under /product/products.
// The filters route registers before /:id so it is not swallowed by the
// param matcher.
func RegisterProductRoutes(app fiber.Router, ctrl *ProductsController) {
	group := app.Group("/product/products")

	group.Get("/filters/options", ctrl.FilterOptions)
	group.Get("/", ctrl.List)
	group.Get("/:id", ctrl.Get)

	requireAuth := ctrl.Authn.RequireAuth()
	requireAdmin := ctrl.Authn.RequireAdmin()
	group.Post("/", requireAuth, requireAdmin, ctrl.Create)
	group.Put("/:id", requireAuth, requireAdmin, ctrl.Update)
	group.Delete("/:id", requireAuth, requireAdmin, ctrl.Delete)
}

// ProductPayload is the create/update request body. On update, zero fields
// are left untouched.
type ProductPayload struct {
	Name             string          `json:"name"`
	Description      string          `json:"description"`
	Price            decimal.Decimal `json:"price"`
	Grade            string          `json:"grade"`
	Manufacturer     string          `json:"manufacturer"`
	Series           string          `json:"series"`
	Scale            string          `json:"scale"`
	Difficulty       int             `json:"difficulty"`
	InStock          int             `json:"in_stock"`
	MainImage        string          `json:"main_image"`
	AdditionalImages []string        `json:"additional_images"`
}

// Validate will validate the payload
func (r ProductPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 300)),
		validation.Field(&r.Grade, validation.Required, validation.By(validGrade)),
		validation.Field(&r.Manufacturer, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Price, validation.By(positivePrice)),
		validation.Field(&r.Difficulty, validation.Min(0), validation.Max(10)),
		validation.Field(&r.InStock, validation.Min(0)),
	)
}

// validateForUpdate relaxes the required fields so partial updates work.
func (r ProductPayload) validateForUpdate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Length(0, 300)),
		validation.Field(&r.Grade, validation.By(validOptionalGrade)),
		validation.Field(&r.Difficulty, validation.Min(0), validation.Max(10)),
		validation.Field(&r.InStock, validation.Min(0)),
	)
}

func validGrade(value any) error {
	s, _ := value.(string)
	if !IsValidGrade(Grade(s)) {
		return validation.NewError("validation_grade", "must be a known grade")
	}
	return nil
}

func validOptionalGrade(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	return validGrade(value)
}

func positivePrice(value any) error {
	d, ok := value.(decimal.Decimal)
	if !ok || d.LessThanOrEqual(decimal.Zero) {
		return validation.NewError("validation_price", "must be greater than zero")
	}
	return nil
}

func (p *ProductsController) List(c *fiber.Ctx) error {
	query := ProductQuery{}
	if err := c.QueryParser(&query); err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "failed to parse query string")
	}

	page, err := p.Repo.Products().List(c.UserContext(), query)
	if err != nil {
		return err
	}

	return c.JSON(page)
}

func (p *ProductsController) Get(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	product, err := p.Repo.Products().GetByID(c.UserContext(), id)
	if err != nil {
		return err
	}

	return c.JSON(product)
}

func (p *ProductsController) Create(c *fiber.Ctx) error {
	payload := new(ProductPayload)
	if err := c.BodyParser(payload); err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "failed to parse request body")
	}

	if err := payload.Validate(); err != nil {
		return errors.Wrap(err, errors.CategoryValidation, "invalid product payload")
	}

	product, err := p.Repo.Products().Create(c.UserContext(), payload.toProduct())
	if err != nil {
		p.Logger.Error("create product error", "error", err)
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(product)
}

func (p *ProductsController) Update(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	payload := new(ProductPayload)
	if err := c.BodyParser(payload); err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "failed to parse request body")
	}

	if err := payload.validateForUpdate(); err != nil {
		return errors.Wrap(err, errors.CategoryValidation, "invalid product payload")
	}

	record := payload.toProduct()
	record.ID = id

	product, err := p.Repo.Products().Update(c.UserContext(), record)
	if err != nil {
		p.Logger.Error("update product error", "error", err)
		return err
	}

	return c.JSON(product)
}

func (p *ProductsController) Delete(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := p.Repo.Products().Delete(c.UserContext(), id); err != nil {
		p.Logger.Error("delete product error", "error", err)
		return err
	}

	return c.JSON(fiber.Map{
		"message": "product deleted",
	})
}

func (p *ProductsController) FilterOptions(c *fiber.Ctx) error {
	opts, err := p.Repo.Products().FilterOptions(c.UserContext())
	if err != nil {
		return err
	}

	return c.JSON(opts)
}

func (r ProductPayload) toProduct() *Product {
	return &Product{
		Name:             r.Name,
		Description:      r.Description,
		Price:            r.Price,
		Grade:            Grade(r.Grade),
		Manufacturer:     r.Manufacturer,
		Series:           r.Series,
		Scale:            r.Scale,
		Difficulty:       r.Difficulty,
		InStock:          r.InStock,
		MainImage:        r.MainImage,
		AdditionalImages: r.AdditionalImages,
	}
}

func parseUUIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, errors.New("invalid id", errors.CategoryBadInput).
			WithMetadata(map[string]any{
				"param": name,
			})
	}
	return id, nil
}
