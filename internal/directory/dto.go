package directory

type ServicesResponse struct {
	Services []*Service `json:"services"`
}

type UsersResponse struct {
	Users []*User `json:"users"`
}

type WorkersResponse struct {
	Workers []*Worker `json:"workers"`
}

type DepartmentsResponse struct {
	Departments []*Department `json:"departments"`
}

type PositionsResponse struct {
	Positions []*Position `json:"positions"`
}
