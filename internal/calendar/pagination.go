package calendar

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// Page описывает одну страницу элементов.
type Page[T any] struct {
	Items    []T // элементы на текущей странице
	Page     int // номер страницы (с 1)
	PageSize int // количество элементов на странице
	HasNext  bool
	HasPrev  bool
	Total    int64 // общее количество элементов
}

// NormalizePage приводит номер и размер страницы к допустимым значениям.
// page нумеруется с 1. При некорректных значениях используются дефолты.
func NormalizePage(page, pageSize int) (int, int) {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	if page <= 0 {
		page = 1
	}
	return page, pageSize
}

// Offset считает смещение для LIMIT/OFFSET по нормализованным page/pageSize.
func Offset(page, pageSize int) int {
	return (page - 1) * pageSize
}

// NewPage собирает страницу из уже выбранных из БД элементов и общего количества.
func NewPage[T any](items []T, page, pageSize int, total int64) Page[T] {
	end := int64(Offset(page, pageSize) + len(items))
	return Page[T]{
		Items:    items,
		Page:     page,
		PageSize: pageSize,
		HasNext:  end < total,
		HasPrev:  page > 1,
		Total:    total,
	}
}
