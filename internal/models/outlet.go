package models

// Outlet представляет точку продаж (ресторан), к которой привязаны заказы
type Outlet struct {
	OutletID   int    `json:"outlet_id"`
	Name       string `json:"name"`
	OutletCode string `json:"outlet_code,omitempty"`
	Address    string `json:"address,omitempty"`
	OwnerName  string `json:"owner_name,omitempty"`
}

// OutletListRequest тело POST get_outlet_list
type OutletListRequest struct {
	OwnerID   string `json:"owner_id"`
	AppSource string `json:"app_source"` // "admin" — так ходит исходное приложение
	OutletID  int    `json:"outlet_id"`  // 0 = все точки владельца
}

// OutletListResponse ответ get_outlet_list
type OutletListResponse struct {
	Outlets []Outlet `json:"outlets"`
}
