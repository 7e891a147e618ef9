package service

import (
	"context"
	"errors"
	"testing"

	"DocHive/backend/go/internal/apperrors"
	"DocHive/backend/go/internal/models"
)

func TestSplitFileName(t *testing.T) {
	cases := []struct {
		in     string
		prefix string
		suffix string
	}{
		{"report.pdf", "report", "pdf"},
		{"archive.tar.gz", "archive.tar", "gz"},
		{"README", "README", ""},
		{".gitignore", "", "gitignore"},
	}
	for _, c := range cases {
		prefix, suffix := splitFileName(c.in)
		if prefix != c.prefix || suffix != c.suffix {
			t.Errorf("splitFileName(%q) = (%q, %q), want (%q, %q)", c.in, prefix, suffix, c.prefix, c.suffix)
		}
	}
}

func TestNumberedName(t *testing.T) {
	if got := numberedName("report", "pdf", 2); got != "report_2.pdf" {
		t.Errorf("got %q, want report_2.pdf", got)
	}
	if got := numberedName("README", "", 1); got != "README_1" {
		t.Errorf("got %q, want README_1", got)
	}
}

func TestResolveUploadNameFree(t *testing.T) {
	s, _, _, _ := newTestService()
	name, err := s.resolveUploadName(context.Background(), 1, 0, "report.pdf")
	if err != nil {
		t.Fatalf("resolveUploadName: %v", err)
	}
	if name != "report.pdf" {
		t.Errorf("got %q, want report.pdf", name)
	}
}

func TestResolveUploadNameRenumbers(t *testing.T) {
	s, ms, _, _ := newTestService()
	ms.insertDoc(models.DocInfo{UID: 1, ParentID: 0, DocName: "report.pdf", Type: models.KindDocument})
	ms.insertDoc(models.DocInfo{UID: 1, ParentID: 0, DocName: "report_1.pdf", Type: models.KindDocument})

	name, err := s.resolveUploadName(context.Background(), 1, 0, "report.pdf")
	if err != nil {
		t.Fatalf("resolveUploadName: %v", err)
	}
	if name != "report_2.pdf" {
		t.Errorf("got %q, want report_2.pdf", name)
	}
}

func TestResolveUploadNameNoSuffix(t *testing.T) {
	s, ms, _, _ := newTestService()
	ms.insertDoc(models.DocInfo{UID: 1, ParentID: 0, DocName: "notes", Type: models.KindOther})

	name, err := s.resolveUploadName(context.Background(), 1, 0, "notes")
	if err != nil {
		t.Fatalf("resolveUploadName: %v", err)
	}
	if name != "notes_1" {
		t.Errorf("got %q, want notes_1", name)
	}
}

func TestResolveUploadNameIgnoresDeleted(t *testing.T) {
	s, ms, _, _ := newTestService()
	ms.insertDoc(models.DocInfo{UID: 1, ParentID: 0, DocName: "report.pdf", IsDeleted: true, DeleteToken: 7})

	name, err := s.resolveUploadName(context.Background(), 1, 0, "report.pdf")
	if err != nil {
		t.Fatalf("resolveUploadName: %v", err)
	}
	if name != "report.pdf" {
		t.Errorf("软删除的同级不应参与冲突判定，got %q", name)
	}
}

func TestResolveUploadNameCaseInsensitive(t *testing.T) {
	s, ms, _, _ := newTestService()
	ms.insertDoc(models.DocInfo{UID: 1, ParentID: 0, DocName: "Report.PDF", Type: models.KindDocument})

	name, err := s.resolveUploadName(context.Background(), 1, 0, "report.pdf")
	if err != nil {
		t.Fatalf("resolveUploadName: %v", err)
	}
	if name != "report_1.pdf" {
		t.Errorf("got %q, want report_1.pdf", name)
	}
}

func TestCheckRenameNameConflict(t *testing.T) {
	s, ms, _, _ := newTestService()
	ms.insertDoc(models.DocInfo{UID: 1, ParentID: 0, DocName: "a.txt"})
	target := ms.insertDoc(models.DocInfo{UID: 1, ParentID: 0, DocName: "b.txt"})

	err := s.checkRenameName(context.Background(), 1, 0, target.Did, "a.txt")
	if !errors.Is(err, apperrors.ErrNameConflict) {
		t.Errorf("got %v, want ErrNameConflict", err)
	}

	// 改回自己的名字不算冲突。
	if err := s.checkRenameName(context.Background(), 1, 0, target.Did, "b.txt"); err != nil {
		t.Errorf("重命名为自身名字: %v", err)
	}
}

func TestCheckRenameNameAllowsDeletedSibling(t *testing.T) {
	s, ms, _, _ := newTestService()
	ms.insertDoc(models.DocInfo{UID: 1, ParentID: 0, DocName: "a.txt", IsDeleted: true, DeleteToken: 1})
	target := ms.insertDoc(models.DocInfo{UID: 1, ParentID: 0, DocName: "b.txt"})

	if err := s.checkRenameName(context.Background(), 1, 0, target.Did, "a.txt"); err != nil {
		t.Errorf("与软删除同级同名应被允许: %v", err)
	}
}
