// Package servers is an example use-case pack: provisioning a virtual server
// with the client doing the actual infrastructure calls.
package servers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/dno/pkg/log"
	"github.com/dukex/dno/pkg/protocol"
	"github.com/dukex/dno/pkg/schema"
)

const CreateServerKind = "CreateServer"

var ErrNoCapacity = errors.New("no appropriate VC")

// GetVCs is shared by every server use case.
var GetVCs = protocol.MustActionField("Get VC list", schema.Empty(), vcListSchema)

var (
	CreateVM  = protocol.MustActionField("Create Virtual Machine", createVMArgsSchema, createVMResultSchema)
	InstallOS = protocol.MustActionField("Install operation system on VM", installOSArgsSchema, installOSResultSchema)
)

// Server holds the steps common to server use cases.
type Server struct{}

func (Server) ListVCs(ctx context.Context, env protocol.Env) ([]VC, error) {
	raw, err := GetVCs.Request(ctx, env, nil)
	if err != nil {
		return nil, err
	}

	list, err := schema.Decode[VCList](raw)
	if err != nil {
		return nil, err
	}

	log.FromContext(ctx).Debug("Received VC list", slog.Int("count", len(list.Result)))

	return list.Result, nil
}

type CreateServer struct {
	Server

	Name   string `json:"name"`
	CPU    int    `json:"cpu"`
	Memory int    `json:"memory"`
	HDD    int    `json:"hdd"`
}

// AppropriateVC returns the first cluster with enough free capacity.
func (u *CreateServer) AppropriateVC(vcs []VC) (VC, bool) {
	for _, vc := range vcs {
		if vc.CPUAvailable >= u.CPU && vc.MemoryAvailable >= u.Memory && vc.HDDAvailable >= u.HDD {
			return vc, true
		}
	}

	return VC{}, false
}

func (u *CreateServer) Run(ctx context.Context, env protocol.Env) (map[string]any, error) {
	vcs, err := u.ListVCs(ctx, env)
	if err != nil {
		return nil, err
	}

	if _, ok := u.AppropriateVC(vcs); !ok {
		return nil, fmt.Errorf("%w for cpu %d memory %d hdd %d", ErrNoCapacity, u.CPU, u.Memory, u.HDD)
	}

	args, err := schema.Encode(CreateVMArgs{Name: u.Name, CPU: u.CPU, Memory: u.Memory, HDD: u.HDD})
	if err != nil {
		return nil, err
	}

	raw, err := CreateVM.Request(ctx, env, args)
	if err != nil {
		return nil, err
	}

	vm, err := schema.Decode[CreateVMResult](raw)
	if err != nil {
		return nil, err
	}

	env.Logger().Info("Virtual machine created", slog.String("vm_id", vm.ID))

	raw, err = InstallOS.Request(ctx, env, map[string]any{"id": vm.ID})
	if err != nil {
		return nil, err
	}

	installed, err := schema.Decode[InstallOSResult](raw)
	if err != nil {
		return nil, err
	}

	return schema.Encode(CreateServerResult{
		ID:       vm.ID,
		OS:       installed.OS,
		Username: installed.Username,
		Password: installed.Password,
		IP:       installed.IP,
	})
}

func NewCreateServerFactory() protocol.UseCaseFactory {
	return &protocol.Definition{
		Kind:    CreateServerKind,
		Title:   "Create server",
		Summary: "Picks a virtualization cluster with free capacity, creates a VM on it and installs an OS",
		Attrs:   createServerAttributes,
		Output:  createServerResultSchema,
		Fields:  []*protocol.ActionField{GetVCs, CreateVM, InstallOS},
		New: func(attributes map[string]any) (protocol.UseCase, error) {
			useCase, err := schema.Decode[CreateServer](attributes)
			if err != nil {
				return nil, err
			}

			return &useCase, nil
		},
	}
}

// UseCases lists every kind of this pack.
func UseCases() []protocol.UseCaseFactory {
	return []protocol.UseCaseFactory{
		NewCreateServerFactory(),
	}
}
