package catalog

import (
	"context"
	"strings"

	"github.com/greenshelf/catalog/internal/domain"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Repository is the catalog data access layer. Every call goes to the database.
type Repository interface {
	// ListProducts returns one page of products and the size of the filtered set
	ListProducts(ctx context.Context, q domain.ProductQuery) ([]domain.Product, int64, error)

	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	CreateProduct(ctx context.Context, p *domain.Product) error

	// UpdateProduct merges the present fields onto the stored record and rewrites it
	UpdateProduct(ctx context.Context, id int64, u domain.ProductUpdate) (*domain.Product, error)

	DeleteProduct(ctx context.Context, id int64) error

	// BulkCreateProducts inserts all rows in one transaction
	BulkCreateProducts(ctx context.Context, products []domain.Product, batchSize int) error

	ListCategories(ctx context.Context) ([]domain.Category, error)
	GetCategory(ctx context.Context, id int64) (*domain.Category, error)
	CreateCategory(ctx context.Context, c *domain.Category) error
	UpdateCategory(ctx context.Context, id int64, name string) (*domain.Category, error)

	// DeleteCategory refuses with ErrConflict while products reference the category
	DeleteCategory(ctx context.Context, id int64) error

	// CategoryIDs returns the set of existing category ids
	CategoryIDs(ctx context.Context) (map[int64]struct{}, error)

	// ReportRows returns every product joined with its category name, by id
	ReportRows(ctx context.Context) ([]domain.ReportRow, error)
}

// GormRepository is the GORM implementation of Repository
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a new GORM-based repository
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

var _ Repository = (*GormRepository)(nil)

// whitelist allowed sort columns to avoid SQL injection
var sortColumns = map[string]string{
	"id":    "products.id",
	"name":  "products.name",
	"price": "products.price",
}

// SortColumn maps a requested sort key to its column; unknown keys sort by id.
func SortColumn(sortBy string) string {
	if col, ok := sortColumns[strings.ToLower(strings.TrimSpace(sortBy))]; ok {
		return col
	}
	return sortColumns["id"]
}

// SortDirection accepts asc/desc in any case; anything else is ASC.
func SortDirection(order string) string {
	if strings.EqualFold(strings.TrimSpace(order), "desc") {
		return "DESC"
	}
	return "ASC"
}

func (r *GormRepository) joined(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&domain.Product{}).
		Joins("JOIN categories ON categories.id = products.category_id")
}

func (r *GormRepository) ListProducts(ctx context.Context, q domain.ProductQuery) ([]domain.Product, int64, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultPageSize
	}

	db := r.joined(ctx)
	if search := strings.TrimSpace(q.Search); search != "" {
		if strings.EqualFold(r.db.Dialector.Name(), "postgres") {
			db = db.Where(`products.name ILIKE ? ESCAPE '\'`, "%"+escapeLike(search)+"%")
		} else {
			db = db.Where(`LOWER(products.name) LIKE ? ESCAPE '\'`, "%"+escapeLike(strings.ToLower(search))+"%")
		}
	}
	if category := strings.TrimSpace(q.Category); category != "" {
		db = db.Where("categories.name = ?", category)
	}
	db = db.Session(&gorm.Session{})

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count products")
	}

	rows := make([]domain.Product, 0, q.Limit)
	err := db.Select("products.*, categories.name AS category_name").
		Order(SortColumn(q.SortBy) + " " + SortDirection(q.SortOrder)).
		Offset(q.Offset()).
		Limit(q.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "query products")
	}
	return rows, total, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside a LIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (r *GormRepository) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	err := r.joined(ctx).
		Select("products.*, categories.name AS category_name").
		Where("products.id = ?", id).
		Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrapf(domain.ErrNotFound, "product %d", id)
	} else if err != nil {
		return nil, errors.Wrapf(err, "query product %d", id)
	}
	return &p, nil
}

func validateProduct(p *domain.Product) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return errors.Wrap(domain.ErrInvalidInput, "name is required")
	}
	if p.CategoryID <= 0 {
		return errors.Wrap(domain.ErrInvalidInput, "categoryId is required")
	}
	if err := domain.CheckPrice(p.Price); err != nil {
		return errors.Wrap(domain.ErrInvalidInput, err.Error())
	}
	p.Description = strings.TrimSpace(p.Description)
	p.ImageURL = strings.TrimSpace(p.ImageURL)
	return nil
}

func checkCategoryExists(tx *gorm.DB, id int64) error {
	var count int64
	if err := tx.Model(&domain.Category{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return errors.Wrap(err, "query category")
	}
	if count == 0 {
		return errors.Wrapf(domain.ErrInvalidInput, "category %d does not exist", id)
	}
	return nil
}

func (r *GormRepository) CreateProduct(ctx context.Context, p *domain.Product) error {
	if err := validateProduct(p); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkCategoryExists(tx, p.CategoryID); err != nil {
			return err
		}
		p.ID = 0
		if err := tx.Create(p).Error; err != nil {
			return errors.Wrap(err, "create product")
		}
		return nil
	})
}

func (r *GormRepository) UpdateProduct(ctx context.Context, id int64, u domain.ProductUpdate) (*domain.Product, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p domain.Product
		if err := tx.Where("id = ?", id).Take(&p).Error; errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.Wrapf(domain.ErrNotFound, "product %d", id)
		} else if err != nil {
			return errors.Wrapf(err, "query product %d", id)
		}

		u.Apply(&p)
		if err := validateProduct(&p); err != nil {
			return err
		}
		if u.CategoryID != nil {
			if err := checkCategoryExists(tx, p.CategoryID); err != nil {
				return err
			}
		}
		// full-record rewrite
		if err := tx.Save(&p).Error; err != nil {
			return errors.Wrapf(err, "update product %d", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetProduct(ctx, id)
}

func (r *GormRepository) DeleteProduct(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Product{})
	if res.Error != nil {
		return errors.Wrapf(res.Error, "delete product %d", id)
	}
	if res.RowsAffected == 0 {
		return errors.Wrapf(domain.ErrNotFound, "product %d", id)
	}
	return nil
}

func (r *GormRepository) BulkCreateProducts(ctx context.Context, products []domain.Product, batchSize int) error {
	if len(products) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = len(products)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.CreateInBatches(products, batchSize).Error; err != nil {
			return errors.Wrapf(err, "insert %d products", len(products))
		}
		return nil
	})
}

func (r *GormRepository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	cats := make([]domain.Category, 0)
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&cats).Error; err != nil {
		return nil, errors.Wrap(err, "query categories")
	}
	return cats, nil
}

func (r *GormRepository) GetCategory(ctx context.Context, id int64) (*domain.Category, error) {
	return getCategory(r.db.WithContext(ctx), id)
}

func getCategory(tx *gorm.DB, id int64) (*domain.Category, error) {
	var c domain.Category
	if err := tx.Where("id = ?", id).Take(&c).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrapf(domain.ErrNotFound, "category %d", id)
	} else if err != nil {
		return nil, errors.Wrapf(err, "query category %d", id)
	}
	return &c, nil
}

func checkCategoryName(tx *gorm.DB, name string, exceptID int64) error {
	var exists int64
	err := tx.Model(&domain.Category{}).Where("name = ? AND id != ?", name, exceptID).Count(&exists).Error
	if err != nil {
		return errors.Wrap(err, "query category name")
	}
	if exists > 0 {
		return errors.Wrapf(domain.ErrConflict, "category %q already exists", name)
	}
	return nil
}

func (r *GormRepository) CreateCategory(ctx context.Context, c *domain.Category) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return errors.Wrap(domain.ErrInvalidInput, "name is required")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkCategoryName(tx, c.Name, 0); err != nil {
			return err
		}
		c.ID = 0
		if err := tx.Create(c).Error; errors.Is(err, gorm.ErrDuplicatedKey) {
			return errors.Wrapf(domain.ErrConflict, "category %q already exists", c.Name)
		} else if err != nil {
			return errors.Wrap(err, "create category")
		}
		return nil
	})
}

func (r *GormRepository) UpdateCategory(ctx context.Context, id int64, name string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.Wrap(domain.ErrInvalidInput, "name is required")
	}
	var out *domain.Category
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := getCategory(tx, id)
		if err != nil {
			return err
		}
		if name != c.Name {
			if err := checkCategoryName(tx, name, id); err != nil {
				return err
			}
			c.Name = name
			if err := tx.Save(c).Error; err != nil {
				return errors.Wrapf(err, "update category %d", id)
			}
		}
		out = c
		return nil
	})
	return out, err
}

func (r *GormRepository) DeleteCategory(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := getCategory(tx, id)
		if err != nil {
			return err
		}

		// Prevent deletion if any product references this category
		var inUse int64
		if err := tx.Model(&domain.Product{}).Where("category_id = ?", id).Count(&inUse).Error; err != nil {
			return errors.Wrap(err, "count category products")
		}
		if inUse > 0 {
			return errors.Wrapf(domain.ErrConflict, "category %q is in use by %d products and cannot be deleted", c.Name, inUse)
		}

		if err := tx.Where("id = ?", id).Delete(&domain.Category{}).Error; err != nil {
			return errors.Wrapf(err, "delete category %d", id)
		}
		return nil
	})
}

func (r *GormRepository) CategoryIDs(ctx context.Context) (map[int64]struct{}, error) {
	var ids []int64
	if err := r.db.WithContext(ctx).Model(&domain.Category{}).Pluck("id", &ids).Error; err != nil {
		return nil, errors.Wrap(err, "query category ids")
	}
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

func (r *GormRepository) ReportRows(ctx context.Context) ([]domain.ReportRow, error) {
	rows := make([]domain.ReportRow, 0)
	err := r.joined(ctx).
		Select("products.id, products.name, categories.name AS category, products.price, products.description, products.image_url").
		Order("products.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "query report rows")
	}
	return rows, nil
}
