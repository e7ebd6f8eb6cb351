package onboard

import (
	"context"
	"fmt"

	"github.com/kartallu/connector/internal/gcp"
)

// fakeProvider is a stateful in-memory provider shared by the workflow tests.
// Operations record themselves in calls and can be made to fail by op key
// ("CreateRole") or op:target key ("AddBinding:proj-2").
type fakeProvider struct {
	accounts map[string]bool            // email -> exists
	roles    map[string]bool            // role ref -> exists
	bindings map[string]map[string]bool // project -> member|roleRef -> bound
	visible  []string                   // projects returned by SearchProjects

	calls  []string
	failOn map[string]error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		accounts: make(map[string]bool),
		roles:    make(map[string]bool),
		bindings: make(map[string]map[string]bool),
		failOn:   make(map[string]error),
	}
}

func (f *fakeProvider) clients() *gcp.ServiceClients {
	return &gcp.ServiceClients{IAM: f, Bindings: f, Projects: f}
}

func (f *fakeProvider) record(op string, targets ...string) error {
	key := op
	for _, t := range targets {
		key += ":" + t
	}
	f.calls = append(f.calls, key)
	if err, ok := f.failOn[key]; ok {
		return err
	}
	if err, ok := f.failOn[op]; ok {
		return err
	}
	return nil
}

func (f *fakeProvider) callCount(prefix string) int {
	n := 0
	for _, c := range f.calls {
		if c == prefix || len(c) > len(prefix) && c[:len(prefix)+1] == prefix+":" {
			n++
		}
	}
	return n
}

func (f *fakeProvider) CreateServiceAccount(_ context.Context, projectID, accountID, _ string) (string, error) {
	if err := f.record("CreateServiceAccount", accountID); err != nil {
		return "", err
	}
	email := fmt.Sprintf("%s@%s.iam.gserviceaccount.com", accountID, projectID)
	f.accounts[email] = true
	return email, nil
}

func (f *fakeProvider) DeleteServiceAccount(_ context.Context, _, accountEmail string) error {
	if err := f.record("DeleteServiceAccount", accountEmail); err != nil {
		return err
	}
	delete(f.accounts, accountEmail)
	return nil
}

func (f *fakeProvider) ListServiceAccounts(_ context.Context, _ string) ([]gcp.ServiceAccount, error) {
	if err := f.record("ListServiceAccounts"); err != nil {
		return nil, err
	}
	var accounts []gcp.ServiceAccount
	for email := range f.accounts {
		accounts = append(accounts, gcp.ServiceAccount{Email: email})
	}
	return accounts, nil
}

func (f *fakeProvider) CreateServiceAccountKey(_ context.Context, _, accountEmail string) ([]byte, error) {
	if err := f.record("CreateServiceAccountKey", accountEmail); err != nil {
		return nil, err
	}
	return []byte(`{"type":"service_account"}`), nil
}

func (f *fakeProvider) CreateRole(_ context.Context, parent, roleID, _, _ string, _ []string) (string, error) {
	if err := f.record("CreateRole", parent, roleID); err != nil {
		return "", err
	}
	ref := parent + "/roles/" + roleID
	f.roles[ref] = true
	return ref, nil
}

func (f *fakeProvider) DeleteRole(_ context.Context, roleName string) error {
	if err := f.record("DeleteRole", roleName); err != nil {
		return err
	}
	delete(f.roles, roleName)
	return nil
}

func (f *fakeProvider) AddBinding(_ context.Context, projectID, member, role string) error {
	if err := f.record("AddBinding", projectID); err != nil {
		return err
	}
	if f.bindings[projectID] == nil {
		f.bindings[projectID] = make(map[string]bool)
	}
	f.bindings[projectID][member+"|"+role] = true
	return nil
}

func (f *fakeProvider) RemoveBinding(_ context.Context, projectID, member, role string) error {
	if err := f.record("RemoveBinding", projectID); err != nil {
		return err
	}
	// Absent bindings are a no-op, mirroring the real policy rewrite.
	delete(f.bindings[projectID], member+"|"+role)
	return nil
}

func (f *fakeProvider) SearchProjects(_ context.Context) ([]string, error) {
	if err := f.record("SearchProjects"); err != nil {
		return nil, err
	}
	return f.visible, nil
}

func (f *fakeProvider) boundCount() int {
	n := 0
	for _, m := range f.bindings {
		n += len(m)
	}
	return n
}
