package scan

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"symguard/internal/logging"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
}

func hasName(t *testing.T, r *Result, name string) bool {
	t.Helper()
	_, ok := r.Names()[name]
	return ok
}

const sampleHeader = `
// Generated header, do not edit.
#ifndef PAYMENT_KIT_H
#define PAYMENT_KIT_H

@protocol PaymentObserving
- (void)paymentDidComplete;
@end

@interface PaymentCoordinator : NSObject
@property (nonatomic, strong) NSString *merchantName;
@property (nonatomic, readonly) NSUInteger retryCount;
- (void)startPaymentWithAmount:(NSDecimalNumber *)amount currency:(NSString *)currency;
- (BOOL)canProcess;
@end

@interface PaymentCoordinator (Testing)
- (void)resetState;
@end

typedef NS_ENUM(NSInteger, PaymentState) {
    PaymentStateIdle,
    PaymentStateRunning,
    PaymentStateFailed
};

typedef double PaymentInterval;

FOUNDATION_EXPORT NSString *const PaymentErrorDomain;

/* legacy name, kept for partners:
@interface OldPaymentManager : NSObject
@end
*/
`

func TestHeaderExtraction(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Sources/PaymentKit.h", sampleHeader)

	r := New(dir, nil, logging.Nop()).Run()

	for _, want := range []string{
		"PaymentCoordinator", "PaymentObserving",
		"PaymentState", "PaymentStateIdle", "PaymentStateRunning", "PaymentStateFailed",
		"PaymentInterval", "PaymentErrorDomain", "PAYMENT_KIT_H",
		"paymentDidComplete", "canProcess", "resetState",
		"startPaymentWithAmount:currency:",
		"merchantName", "setMerchantName:", "retryCount",
	} {
		if !hasName(t, r, want) {
			t.Errorf("Missing expected identifier %q", want)
		}
	}

	// readonly property gets no setter, category names are dropped.
	for _, reject := range []string{"setRetryCount:", "Testing", "NSObject", "OldPaymentManager"} {
		if hasName(t, r, reject) {
			t.Errorf("Identifier %q should not be extracted", reject)
		}
	}
}

func TestHeaderCommentStripping(t *testing.T) {
	clean := stripComments("@interface A // @interface B\n/* @interface C */ : NSObject\n#define KEEP 1 // trailing\n\"a // string\"")
	for _, gone := range []string{"@interface B", "@interface C"} {
		if strings.Contains(clean, gone) {
			t.Errorf("Comment content %q survived stripping: %q", gone, clean)
		}
	}
	for _, kept := range []string{"@interface A", "#define KEEP", `"a // string"`} {
		if !strings.Contains(clean, kept) {
			t.Errorf("Stripper removed %q: %q", kept, clean)
		}
	}
}

const sampleStoryboard = `<?xml version="1.0" encoding="UTF-8"?>
<document type="com.apple.InterfaceBuilder3.CocoaTouch.Storyboard.XIB">
  <scenes>
    <scene sceneID="s1">
      <viewController id="vc1" customClass="CheckoutViewController" customModule="Payments" storyboardIdentifier="Checkout">
        <view id="v1">
          <tableViewCell reuseIdentifier="LineItemCell" customClass="LineItemCell"/>
        </view>
        <connections>
          <connection kind="outlet" property="totalLabel" id="c1"/>
          <connection kind="action" selector="payTapped:" id="c2"/>
        </connections>
        <userDefinedRuntimeAttribute type="boolean" keyPath="layer.masksToBounds" value="YES"/>
      </viewController>
      <segue identifier="showReceipt" id="sg1"/>
    </scene>
  </scenes>
</document>
`

func TestStoryboardExtraction(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "UI/Main.storyboard", sampleStoryboard)

	r := New(dir, nil, logging.Nop()).Run()

	for _, want := range []string{
		"CheckoutViewController", "LineItemCell", "Payments",
		"Checkout", "totalLabel", "payTapped:", "showReceipt", "masksToBounds",
	} {
		if !hasName(t, r, want) {
			t.Errorf("Missing storyboard identifier %q", want)
		}
	}
	if hasName(t, r, "UIViewController") {
		t.Error("System classes must not enter the reference set")
	}
}

const samplePlist = `<?xml version="1.0" encoding="UTF-8"?>
<plist version="1.0">
<dict>
  <key>NSPrincipalClass</key>
  <string>PaymentApplication</string>
  <key>CFBundleURLTypes</key>
  <array>
    <dict>
      <key>CFBundleURLSchemes</key>
      <array>
        <string>paymentapp</string>
      </array>
    </dict>
  </array>
  <key>NSUserActivityTypes</key>
  <array>
    <string>com.example.checkout</string>
  </array>
</dict>
</plist>
`

func TestPlistExtraction(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "App/Info.plist", samplePlist)

	r := New(dir, nil, logging.Nop()).Run()

	for _, want := range []string{"PaymentApplication", "paymentapp", "com.example.checkout"} {
		if !hasName(t, r, want) {
			t.Errorf("Missing plist identifier %q", want)
		}
	}
}

func TestStringsExtraction(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "App/en.lproj/Localizable.strings",
		"\"checkout_title\" = \"Checkout\";\n\"-\" = \"dash\";\n")

	r := New(dir, nil, logging.Nop()).Run()

	if !hasName(t, r, "checkout_title") {
		t.Error("Missing localization key checkout_title")
	}
	if hasName(t, r, "-") {
		t.Error("Non-alphanumeric keys should be skipped")
	}
}

func TestCoreDataExtraction(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Model/Store.xcdatamodeld/Store.xcdatamodel/contents", `<?xml version="1.0"?>
<model>
  <entity name="Order" representedClassName="Order">
    <attribute name="total" attributeType="Decimal"/>
    <relationship name="items" destinationEntity="LineItem"/>
  </entity>
  <fetchRequest name="recentOrders" entity="Order"/>
</model>
`)

	r := New(dir, nil, logging.Nop()).Run()

	for _, want := range []string{"Order", "total", "items", "recentOrders"} {
		if !hasName(t, r, want) {
			t.Errorf("Missing Core Data identifier %q", want)
		}
	}
}

func TestExcludedDirectoriesSkipped(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Pods/Vendor/Vendor.h", "@interface VendorThing : NSObject\n@end\n")
	writeFile(t, dir, ".git/stray.h", "@interface GitThing : NSObject\n@end\n")
	writeFile(t, dir, "Sources/Mine.h", "@interface MyThing : NSObject\n@end\n")

	r := New(dir, nil, logging.Nop()).Run()

	if hasName(t, r, "VendorThing") || hasName(t, r, "GitThing") {
		t.Error("Excluded directories leaked into the reference set")
	}
	if !hasName(t, r, "MyThing") {
		t.Error("Project headers should be scanned")
	}
}

func TestMissingProjectYieldsEmptySet(t *testing.T) {
	r := New(filepath.Join(t.TempDir(), "nope"), nil, logging.Nop()).Run()
	if r.Total() != 0 {
		t.Errorf("Expected empty result for missing project, got %d names", r.Total())
	}
}

func TestCategoryListingSorted(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "A.h", "@interface Zed : NSObject\n@end\n@interface Abc : NSObject\n@end\n")

	r := New(dir, nil, logging.Nop()).Run()

	got := r.Category(CategoryClasses)
	if len(got) != 2 || got[0] != "Abc" || got[1] != "Zed" {
		t.Errorf("Category listing not sorted: %v", got)
	}
}
