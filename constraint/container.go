package constraint

// ContactContainer receives the contacts of a step.
// Contacts are added between BeginAddContact and EndAddContact.
type ContactContainer interface {
	BeginAddContact()
	AddContact(info ContactInfo)
	EndAddContact()
}

// ParticleContactContainer receives particle contacts
type ParticleContactContainer interface {
	BeginAddParticleContact()
	AddParticleContact(contact ParticleContact)
	EndAddParticleContact()
}

// Container collects contacts in memory. Each BeginAddContact starts a new report.
type Container struct {
	Contacts         []ContactInfo
	ParticleContacts []ParticleContact

	// Reports counts completed BeginAddContact/EndAddContact cycles
	Reports int
}

func (c *Container) BeginAddContact() {
	c.Contacts = c.Contacts[:0]
}

func (c *Container) AddContact(info ContactInfo) {
	c.Contacts = append(c.Contacts, info)
}

func (c *Container) EndAddContact() {
	c.Reports++
}

func (c *Container) BeginAddParticleContact() {
	c.ParticleContacts = c.ParticleContacts[:0]
}

func (c *Container) AddParticleContact(contact ParticleContact) {
	c.ParticleContacts = append(c.ParticleContacts, contact)
}

func (c *Container) EndAddParticleContact() {}
