package domain

// Project is a named collaboration space. One logical clock belongs to each
// project: project time is only meaningful among that project's peers.
type Project struct {
	Name        string
	Password    string
	HasPassword bool
	Visible     bool
	Clock       *LogicalClock

	members []string
}

// Authorize checks a presented password against the project's. An absent
// password only matches a project that has none; an empty string is a real
// password.
func (p *Project) Authorize(password string, hasPassword bool) bool {
	if hasPassword != p.HasPassword {
		return false
	}
	return !hasPassword || password == p.Password
}

func (p *Project) Members() []string {
	out := make([]string, len(p.members))
	copy(out, p.members)
	return out
}

func (p *Project) AddMember(username string) {
	for _, m := range p.members {
		if m == username {
			return
		}
	}
	p.members = append(p.members, username)
}

func (p *Project) RemoveMember(username string) {
	for i, m := range p.members {
		if m == username {
			p.members = append(p.members[:i], p.members[i+1:]...)
			return
		}
	}
}

func (p *Project) RenameMember(oldName, newName string) {
	for i, m := range p.members {
		if m == oldName {
			p.members[i] = newName
			return
		}
	}
}
