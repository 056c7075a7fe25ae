// Package navigation decides which menu entries and page sections each
// role sees.
package navigation

import "github.com/cuidapet/clinic-api/internal/model"

var (
	home           = model.NavEntry{Key: "home", Label: "Início", Path: "/"}
	login          = model.NavEntry{Key: "login", Label: "Entrar / Cadastrar", Path: "/login"}
	myPets         = model.NavEntry{Key: "my-pets", Label: "Meus Pets", Path: "/my-pets"}
	myAppointments = model.NavEntry{Key: "my-appointments", Label: "Meus Agendamentos", Path: "/my-appointments"}
	appointments   = model.NavEntry{Key: "appointments", Label: "Agendamentos", Path: "/appointments"}
	pets           = model.NavEntry{Key: "pets", Label: "Pets", Path: "/pets"}
	services       = model.NavEntry{Key: "services", Label: "Serviços", Path: "/services"}
	users          = model.NavEntry{Key: "users", Label: "Usuários", Path: "/users"}
	profile        = model.NavEntry{Key: "profile", Label: "Perfil", Path: "/profile"}
	logout         = model.NavEntry{Key: "logout", Label: "Sair", Path: "/logout"}
)

var menus = map[model.Role][]model.NavEntry{
	model.RoleNone:     {home, login},
	model.RoleClient:   {home, myPets, myAppointments, profile, logout},
	model.RoleEmployee: {home, appointments, pets, profile, logout},
	model.RoleAdmin:    {home, appointments, pets, services, users, profile, logout},
}

// Entries returns the ordered menu for role. Unknown roles get the
// anonymous menu.
func Entries(role model.Role) []model.NavEntry {
	menu, ok := menus[role]
	if !ok {
		menu = menus[model.RoleNone]
	}
	out := make([]model.NavEntry, len(menu))
	copy(out, menu)
	return out
}

// Sections returns the keys of the page sections to build for role.
func Sections(role model.Role) []string {
	entries := Entries(role)
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	return keys
}

// For returns the full navigation of role.
func For(role model.Role) *model.Navigation {
	if _, ok := menus[role]; !ok {
		role = model.RoleNone
	}
	return &model.Navigation{
		Role:     role,
		Entries:  Entries(role),
		Sections: Sections(role),
	}
}

// Allows reports whether the entry key is visible to role.
func Allows(role model.Role, key string) bool {
	for _, e := range Entries(role) {
		if e.Key == key {
			return true
		}
	}
	return false
}
