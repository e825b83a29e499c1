package services

import (
	"math"
	"strings"
)

// Параметры пагинации по умолчанию
const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// AssetSortField закрытый список полей сортировки
type AssetSortField int

const (
	SortByName AssetSortField = iota
	SortByCode
	SortByStatus
	SortByCreatedAt
	SortByUpdatedAt
)

// ParseAssetSortField разбирает значение sortBy без учета регистра.
// Неизвестное значение дает сортировку по имени.
func ParseAssetSortField(raw string) AssetSortField {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "code":
		return SortByCode
	case "status":
		return SortByStatus
	case "createdat":
		return SortByCreatedAt
	case "updatedat":
		return SortByUpdatedAt
	default:
		return SortByName
	}
}

// Column возвращает колонку таблицы assets для поля сортировки
func (f AssetSortField) Column() string {
	switch f {
	case SortByCode:
		return "code"
	case SortByStatus:
		return "status"
	case SortByCreatedAt:
		return "created_at"
	case SortByUpdatedAt:
		return "updated_at"
	default:
		return "name"
	}
}

// String возвращает имя поля в том виде, в каком его принимает API
func (f AssetSortField) String() string {
	switch f {
	case SortByCode:
		return "code"
	case SortByStatus:
		return "status"
	case SortByCreatedAt:
		return "createdAt"
	case SortByUpdatedAt:
		return "updatedAt"
	default:
		return "name"
	}
}

// SortDirection направление сортировки
type SortDirection int

const (
	SortAsc SortDirection = iota
	SortDesc
)

// ParseSortDirection разбирает sortDir; все, кроме "desc", означает asc
func ParseSortDirection(raw string) SortDirection {
	if strings.EqualFold(strings.TrimSpace(raw), "desc") {
		return SortDesc
	}
	return SortAsc
}

// AssetQuery параметры выборки списка активов
type AssetQuery struct {
	Page     int
	PageSize int
	Search   string
	SortBy   AssetSortField
	SortDir  SortDirection
}

// NewAssetQuery возвращает запрос со значениями по умолчанию
func NewAssetQuery() AssetQuery {
	return AssetQuery{
		Page:     DefaultPage,
		PageSize: DefaultPageSize,
		SortBy:   SortByName,
		SortDir:  SortAsc,
	}
}

// normalized приводит page и pageSize к допустимым границам
func (q AssetQuery) normalized() AssetQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Page > math.MaxInt32 {
		q.Page = math.MaxInt32
	}
	if q.PageSize < 1 {
		q.PageSize = 1
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	q.Search = strings.TrimSpace(q.Search)
	return q
}

func (q AssetQuery) offset() int {
	return (q.Page - 1) * q.PageSize
}

// PagedResult страница результатов
type PagedResult[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern строит шаблон подстроки для LIKE с экранированием спецсимволов
func likePattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}
